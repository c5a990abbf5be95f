package geometry

import (
	"math"
	"sort"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// DistanceStats summarises distances between two outlines.
type DistanceStats struct {
	Samples int     `json:"samples" yaml:"samples"`
	Min     float64 `json:"minMM" yaml:"minMM"`
	Median  float64 `json:"medianMM" yaml:"medianMM"`
	Max     float64 `json:"maxMM" yaml:"maxMM"`
}

// offsetSamples is the number of points taken along the inner outline when
// measuring an offset.
const offsetSamples = 720

// OffsetDistance measures how far inner sits from outer by sampling inner
// evenly by arc length and taking each sample's distance to outer.
func OffsetDistance(outer, inner []model.Point) DistanceStats {
	outer = ToRing(outer, dedupeEpsilon)
	inner = ToRing(inner, dedupeEpsilon)
	if len(outer) < 2 || len(inner) < 2 {
		return DistanceStats{}
	}

	pts := Resample(inner, offsetSamples)
	dists := make([]float64, len(pts))
	for i, p := range pts {
		dists[i] = DistanceToRing(outer, p)
	}
	sort.Float64s(dists)

	median := dists[len(dists)/2]
	if len(dists)%2 == 0 {
		median = 0.5 * (dists[len(dists)/2-1] + dists[len(dists)/2])
	}
	return DistanceStats{
		Samples: len(dists),
		Min:     dists[0],
		Median:  median,
		Max:     dists[len(dists)-1],
	}
}

// Report is the result of checking one outline for mold use.
type Report struct {
	Points            int        `json:"points" yaml:"points"`
	Closed            bool       `json:"closed" yaml:"closed"`
	Simple            bool       `json:"simple" yaml:"simple"`
	Area              float64    `json:"areaMM2" yaml:"areaMM2"`
	Perimeter         float64    `json:"perimeterMM" yaml:"perimeterMM"`
	CCW               bool       `json:"ccw" yaml:"ccw"`
	Bounds            BBox       `json:"bounds" yaml:"bounds"`
	SelfIntersections []Crossing `json:"selfIntersections,omitempty" yaml:"selfIntersections,omitempty"`
}

// maxReportedCrossings caps the crossings listed in a Report.
const maxReportedCrossings = 10

// Check inspects a path. closed says whether the source polyline carried a
// closed flag; a path whose end points meet within tol counts as closed
// too.
func Check(path []model.Point, closed bool, tol float64) Report {
	ring := ToRing(path, tol)
	r := Report{
		Points: len(ring),
		Closed: closed || IsClosed(path, tol),
		Bounds: Bounds(ring),
	}
	if len(ring) < 3 {
		return r
	}
	r.Area = Area(ring)
	r.Perimeter = Perimeter(ring)
	r.CCW = IsCCW(ring)
	r.SelfIntersections = SelfIntersections(ring, maxReportedCrossings)
	r.Simple = len(r.SelfIntersections) == 0
	return r
}

// OK reports whether the outline is usable: closed, simple and with a
// positive area.
func (r Report) OK() bool {
	return r.Closed && r.Simple && r.Area > 0 && !math.IsNaN(r.Area)
}
