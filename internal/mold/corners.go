package mold

import (
	"math"

	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Corner detection settings.
const (
	// cornerSamples is the number of points the outline is resampled to.
	cornerSamples = 2500

	// cornerNeighbour is how many samples away the neighbours used for the
	// turning angle are.
	cornerNeighbour = 3

	// cornerCandidates is how many of the sharpest samples are considered.
	cornerCandidates = 400

	// minBandCandidates is the number of candidates inside the waist band
	// below which the band filter is dropped.
	minBandCandidates = 20

	// waistBandLo and waistBandHi bound the waist band as fractions of the
	// body length. Corners never sit near the ends.
	waistBandLo = 0.25
	waistBandHi = 0.75
)

// frame is the body coordinate frame: long runs along the body axis
// towards the neck, side runs across it.
type frame struct {
	long   model.Point
	side   model.Point
	center model.Point
}

func newFrame(axis model.Axis, center model.Point) frame {
	if axis == model.AxisY {
		return frame{long: model.Pt(0, 1), side: model.Pt(1, 0), center: center}
	}
	return frame{long: model.Pt(1, 0), side: model.Pt(0, 1), center: center}
}

// coords returns p's position along and across the body relative to the
// frame centre.
func (f frame) coords(p model.Point) (along, across float64) {
	d := p.Sub(f.center)
	return d.Dot(f.long), d.Dot(f.side)
}

// Corner is a detected corner with the direction it points to.
type Corner struct {
	// Point is the sample closest to the corner tip.
	Point model.Point `json:"point" yaml:"point"`

	// Score is the turning angle proxy in radians (0 straight, pi hairpin).
	Score float64 `json:"score" yaml:"score"`

	// Bisector is the unit vector from the inside of the corner towards
	// its tip.
	Bisector model.Point `json:"bisector" yaml:"bisector"`
}

// findCorners picks up to four corners around the waist: on each side of
// the centerline, the sharpest sample towards the neck and the sharpest
// towards the end.
func findCorners(ring []model.Point, axis model.Axis) []Corner {
	b := geometry.Bounds(ring)
	f := newFrame(axis, b.Center())

	pts := geometry.Resample(ring, cornerSamples)
	scores := geometry.CornerScores(pts, cornerNeighbour)
	ranked := geometry.RankByScore(scores)
	if len(ranked) > cornerCandidates {
		ranked = ranked[:cornerCandidates]
	}

	minAlong, _ := f.coords(b.Min)
	maxAlong, _ := f.coords(b.Max)
	length := maxAlong - minAlong
	lo := minAlong + waistBandLo*length
	hi := minAlong + waistBandHi*length

	var cand []int
	for _, i := range ranked {
		along, _ := f.coords(pts[i])
		if along >= lo && along <= hi {
			cand = append(cand, i)
		}
	}
	if len(cand) < minBandCandidates {
		cand = ranked
	}

	// Sides are split relative to the centerline, not the drawing origin,
	// so outlines that are not centred still get two corners per side.
	var left, right []int
	for _, i := range cand {
		if _, across := f.coords(pts[i]); across >= 0 {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	var corners []Corner
	for _, side := range [][]int{left, right} {
		for _, i := range pickTwoByLength(pts, side, f) {
			corners = append(corners, Corner{
				Point:    pts[i],
				Score:    scores[i],
				Bisector: bisector(pts, i, cornerNeighbour),
			})
		}
	}
	return corners
}

// pickTwoByLength returns the best candidate towards the neck and the best
// towards the end. When one half has none the two best overall are used.
func pickTwoByLength(pts []model.Point, inds []int, f frame) []int {
	var neck, end []int
	for _, i := range inds {
		if along, _ := f.coords(pts[i]); along >= 0 {
			neck = append(neck, i)
		} else {
			end = append(end, i)
		}
	}
	if len(neck) == 0 || len(end) == 0 {
		if len(inds) > 2 {
			return inds[:2]
		}
		return inds
	}
	return []int{neck[0], end[0]}
}

// bisector returns the unit direction from the midpoint of pts[i]'s
// neighbours to pts[i], which points out of a convex corner.
func bisector(pts []model.Point, i, k int) model.Point {
	n := len(pts)
	prev := pts[((i-k)%n+n)%n]
	next := pts[(i+k)%n]
	return pts[i].Sub(prev.Lerp(next, 0.5)).Normalize()
}

// flatNormal returns the outward normal of a corner flat: angleDeg away
// from the body axis, pointing the same way as the corner along and across
// the body.
func flatNormal(c Corner, f frame, angleDeg float64) model.Point {
	a := angleDeg * math.Pi / 180
	along, across := c.Bisector.Dot(f.long), c.Bisector.Dot(f.side)

	// Fall back to the corner's quadrant when the bisector is square to
	// one of the axes.
	pa, ps := f.coords(c.Point)
	if math.Abs(along) < 1e-6 {
		along = -pa
	}
	if math.Abs(across) < 1e-6 {
		across = ps
	}

	sl, ss := sign(along), sign(across)
	return f.long.Scale(sl * math.Cos(a)).Add(f.side.Scale(ss * math.Sin(a)))
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
