package press

import (
	"fmt"
	"math"
	"sort"
)

// Tolerance absorbs floating-point rounding at the gap window boundaries.
const Tolerance = 1e-9

// Constraints describes the fixed mechanical limits of a press.
type Constraints struct {
	Pitch              float64 `json:"pitch_mm"`
	GapMin             float64 `json:"gap_min_mm"`
	GapMax             float64 `json:"gap_max_mm"`
	ZMin               int     `json:"z_min"`
	ZMax               int     `json:"z_max"`
	TotalCylinderWidth float64 `json:"total_cylinder_width_mm"`
	WorkingWidth       float64 `json:"working_width_mm"`
	LateralGap         float64 `json:"lateral_gap_mm"`
	EdgeWaste          float64 `json:"edge_waste_mm"`
	MaxMaterialWidth   float64 `json:"max_material_width_mm"`
}

// DefaultConstraints returns the constraints of the reference semirotary press.
func DefaultConstraints() Constraints {
	return Constraints{
		Pitch:              3.175,
		GapMin:             2.5,
		GapMax:             4.0,
		ZMin:               70,
		ZMax:               140,
		TotalCylinderWidth: 200,
		WorkingWidth:       190,
		LateralGap:         5,
		EdgeWaste:          10,
		MaxMaterialWidth:   200,
	}
}

// CylinderSolution is one feasible tooth count / repeat combination.
type CylinderSolution struct {
	ToothCount    int     `json:"tooth_count"`
	Circumference float64 `json:"circumference_mm"`
	Repeats       int     `json:"repeats"`
	Gap           float64 `json:"gap_mm"`
}

// CompareSolutions orders solutions by ascending tooth count and, for equal
// tooth counts, by descending repeats. Smaller cylinders come first.
func CompareSolutions(a, b CylinderSolution) int {
	if a.ToothCount != b.ToothCount {
		if a.ToothCount < b.ToothCount {
			return -1
		}
		return 1
	}
	switch {
	case a.Repeats > b.Repeats:
		return -1
	case a.Repeats < b.Repeats:
		return 1
	}
	return 0
}

// Solve enumerates every feasible cylinder for a label of the given width
// and returns the preferred one, all candidates in preference order and a
// diagnostic. A nil best solution means the width cannot be printed.
func Solve(width float64, c Constraints) (*CylinderSolution, []CylinderSolution, string) {
	if width <= 0 {
		return nil, nil, "template width must be > 0"
	}

	if c.GapMin <= 0 || c.Pitch <= 0 {
		return nil, nil, "press pitch and minimum gap must be > 0"
	}

	var candidates []CylinderSolution
	for z := c.ZMin; z <= c.ZMax; z++ {
		circumference := float64(z) * c.Pitch
		maxRepeats := int(math.Floor(circumference / (width + c.GapMin - Tolerance)))
		// Repeats below this leave a gap wider than GapMax.
		minRepeats := max(int(math.Ceil(circumference/(width+c.GapMax)))-1, 1)
		for n := minRepeats; n <= maxRepeats; n++ {
			gap := circumference/float64(n) - width
			if gap >= c.GapMin-Tolerance && gap <= c.GapMax+Tolerance {
				candidates = append(candidates, CylinderSolution{
					ToothCount:    z,
					Circumference: circumference,
					Repeats:       n,
					Gap:           gap,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil, nil, fmt.Sprintf(
			"no cylinder found (%d-%d teeth) for W=%.3fmm with G=%.1f-%.1fmm",
			c.ZMin, c.ZMax, width, c.GapMin, c.GapMax,
		)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return CompareSolutions(candidates[i], candidates[j]) < 0
	})

	best := candidates[0]
	return &best, candidates, "circumference calculation OK"
}
