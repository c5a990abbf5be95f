// Package measure checks a body outline against the reference cello
// dimensions and brings it into the orientation mold generation expects.
//
// Widths are taken by slicing the outline with lines square to the body
// axis. The upper bout is the widest slice in the 40 % of the length at the
// neck end, the lower bout the widest in the 40 % at the tail end, and the
// C-bout the narrowest slice in the middle 30 %. The neck end is the end
// with the narrower bout.
package measure
