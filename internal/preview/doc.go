// Package preview rasterizes outlines to PNG so a mold can be eyeballed
// before it goes to the laser.
//
// Outlines are drawn with the golang.org/x/image/vector rasterizer, scaled
// to a requested pixel width with a blank margin and the Y axis pointing
// up as in the drawing. FromDrawing turns a DXF drawing into the polylines
// and circles Render takes.
package preview
