// Package pipeline implements the outline preparation steps and chains
// them into one run.
//
// Each step is a plain function on a dxf.Drawing so the CLI can expose it
// as its own command:
//
//	inspect  -> entity histogram and LWPOLYLINE summary
//	flatten  -> every curve sampled into an open LWPOLYLINE
//	join     -> segments chained into one closed LWPOLYLINE
//	offset   -> the closed outline plus its inward offset
//	validate -> closure, self-intersection and offset distance checks
//	orient   -> body along +X, bounding box centred on the origin
//
// Run executes flatten, join, offset and validate (plus the optional mold
// and preview stages) and records every output in a YAML manifest.
package pipeline
