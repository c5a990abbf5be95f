// Package geometry implements the 2D operations of the mold workflow on
// plain millimetre point lists.
//
// A "ring" is a closed outline stored without a repeated end point; a
// "path" is an open point list. The package covers exactly what turning a
// CAD export into a laser-cut inner mold needs:
//
//   - flattening DXF curves (arcs, bulged polylines, ellipses, splines) into
//     points within a chord tolerance
//   - joining loose segments into one chain by matching end points
//   - offsetting a ring inward by a fixed distance, independent of winding
//   - clipping a ring with a half-plane and splitting it along a line
//   - closedness, self-intersection, containment and distance checks
//
// It is not a general-purpose geometry library: there are no booleans
// between arbitrary polygons and no curve output.
package geometry
