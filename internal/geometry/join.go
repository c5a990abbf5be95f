package geometry

import "github.com/shinji-kodama/cellomold/internal/model"

// DefaultJoinTolerance is the end-point matching distance (mm) used when
// chaining segments.
const DefaultJoinTolerance = 0.01

// JoinResult is the outcome of chaining segments.
type JoinResult struct {
	// Path is the chained point list. When the chain closes, the first
	// point is repeated at the end.
	Path []model.Point

	// Used is the number of input segments that ended up in Path.
	Used int

	// Leftover is the number of segments that could not be attached.
	// Non-zero means there is a gap (or a stray piece) in the outline.
	Leftover int
}

// Closed reports whether the joined path returns to its start within tol.
func (r JoinResult) Closed(tol float64) bool {
	return IsClosed(r.Path, tol)
}

// Join chains segments into one path by matching end points within tol.
//
// It starts from the first segment and repeatedly looks for a segment that
// touches either end of the growing path, trying in order: path end to
// segment start, path end to segment end (segment reversed), path start to
// segment end, and path start to segment start (segment reversed). The
// first match wins. Joining stops when no remaining segment touches the
// path; those segments are reported in Leftover.
//
// Segments with fewer than two points are ignored.
func Join(segments [][]model.Point, tol float64) JoinResult {
	remaining := make([][]model.Point, 0, len(segments))
	for _, s := range segments {
		if len(s) >= 2 {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		return JoinResult{}
	}

	tol2 := tol * tol
	path := append([]model.Point(nil), remaining[0]...)
	remaining = remaining[1:]
	used := 1

	for len(remaining) > 0 {
		found := false
		for i, seg := range remaining {
			head, tail := path[0], path[len(path)-1]
			first, last := seg[0], seg[len(seg)-1]

			switch {
			case tail.DistSq(first) < tol2:
				path = append(path, seg[1:]...)
			case tail.DistSq(last) < tol2:
				path = append(path, Reverse(seg[:len(seg)-1])...)
			case head.DistSq(last) < tol2:
				path = append(append([]model.Point(nil), seg[:len(seg)-1]...), path...)
			case head.DistSq(first) < tol2:
				path = append(Reverse(seg[1:]), path...)
			default:
				continue
			}

			remaining = append(remaining[:i], remaining[i+1:]...)
			used++
			found = true
			break
		}
		if !found {
			break
		}
	}

	return JoinResult{Path: Dedupe(path), Used: used, Leftover: len(remaining)}
}
