// Package dxf reads and writes the subset of the ASCII DXF format that the
// cello mold workflow touches.
//
// Reading covers the HEADER variables $ACADVER and $INSUNITS and the
// ENTITIES section: LINE, ARC, CIRCLE, LWPOLYLINE (with bulges),
// POLYLINE/VERTEX/SEQEND, SPLINE and ELLIPSE carry geometry; every other
// entity type (TEXT, MTEXT, DIMENSION, HATCH, INSERT, ...) is kept with its
// type name and layer only, so it can be counted and skipped.
//
// Writing always produces DXF R2000 (AC1015) in millimetres, which is the
// revision laser and CNC CAM software reads most reliably. Only LINE, ARC,
// CIRCLE and LWPOLYLINE are written; the workflow never needs anything else.
//
// Binary DXF is not supported.
package dxf
