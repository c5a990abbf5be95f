// Package mold turns an already-offset body outline into a laser-cuttable
// inner mold.
//
// Starting from the outline, Generate cuts flats for the neck and end
// blocks square to the body axis, finds the four corners around the waist
// and trims a flat for each corner block, places alignment pin holes on the
// centerline, and splits the result into two halves along the centerline.
// WriteFiles stores the full mold and both halves as DXF with the outline
// on layer CUT and the pin holes on layer PINS.
package mold
