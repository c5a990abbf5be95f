package geometry

import (
	"math"
	"sort"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// Resample returns n points spaced evenly by arc length around a ring,
// starting at ring[0]. The closing edge is included.
func Resample(ring []model.Point, n int) []model.Point {
	if n <= 0 || len(ring) == 0 {
		return nil
	}
	if len(ring) == 1 {
		out := make([]model.Point, n)
		for i := range out {
			out[i] = ring[0]
		}
		return out
	}

	total := Perimeter(ring)
	out := make([]model.Point, 0, n)
	if total == 0 {
		for i := 0; i < n; i++ {
			out = append(out, ring[0])
		}
		return out
	}

	step := total / float64(n)
	edge := 0
	walked := 0.0 // arc length at the start of edge
	count := len(ring)
	for i := 0; i < n; i++ {
		target := step * float64(i)
		for {
			a, b := ring[edge%count], ring[(edge+1)%count]
			l := a.Dist(b)
			if target <= walked+l || edge >= count-1 {
				t := 0.0
				if l > 0 {
					t = math.Min(1, (target-walked)/l)
				}
				out = append(out, a.Lerp(b, t))
				break
			}
			walked += l
			edge++
		}
	}
	return out
}

// CornerScores rates how sharply the outline turns at every point of a
// ring. Point i is compared with its neighbours k steps away: a straight
// run scores 0, a hairpin scores close to pi.
func CornerScores(pts []model.Point, k int) []float64 {
	n := len(pts)
	scores := make([]float64, n)
	if n < 3 {
		return scores
	}
	if k < 1 {
		k = 1
	}
	for i := 0; i < n; i++ {
		p := pts[i]
		v1 := pts[((i-k)%n+n)%n].Sub(p)
		v2 := pts[(i+k)%n].Sub(p)
		l1, l2 := v1.Len(), v2.Len()
		if l1 < 1e-9 || l2 < 1e-9 {
			continue
		}
		cos := v1.Dot(v2) / (l1 * l2)
		angle := math.Acos(math.Max(-1, math.Min(1, cos)))
		scores[i] = math.Pi - angle
	}
	return scores
}

// RankByScore returns the indices of scores ordered from highest to
// lowest. Equal scores keep their index order.
func RankByScore(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}
