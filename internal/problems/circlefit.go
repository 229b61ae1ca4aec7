package problems

import (
	"fmt"
	"math"
)

// CircleFit fits a circle to a set of 2D points by minimizing the mean
// squared radial residual. The decision vector is (cx, cy, r). Bounds are
// derived from the point cloud's extent so the optimum always lies inside
// the box.
type CircleFit struct {
	Points [][2]float64 `json:"points" yaml:"points"`
}

// Fitness returns the mean squared distance between each point's radius from
// (cx, cy) and r.
func (c CircleFit) Fitness(x []float64) []float64 {
	cx, cy, r := x[0], x[1], x[2]
	sum := 0.0
	for _, p := range c.Points {
		d := math.Hypot(p[0]-cx, p[1]-cy) - r
		sum += d * d
	}
	return []float64{sum / float64(len(c.Points))}
}

// Bounds boxes the center inside the point cloud's extent, padded by its
// diagonal, and the radius inside (0, diagonal].
func (c CircleFit) Bounds() (lo, hi []float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range c.Points {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	diag := math.Hypot(maxX-minX, maxY-minY)
	if diag == 0 {
		diag = 1
	}
	lo = []float64{minX - diag, minY - diag, 0}
	hi = []float64{maxX + diag, maxY + diag, diag}
	return lo, hi
}

// Name identifies the problem in summaries and the persistence registry.
func (c CircleFit) Name() string { return "CircleFit" }

// ExtraInfo describes the instance.
func (c CircleFit) ExtraInfo() string {
	return fmt.Sprintf("Points: %d", len(c.Points))
}
