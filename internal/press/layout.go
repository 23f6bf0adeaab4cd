package press

import "math"

// LayoutResult is the lane arrangement of labels across the material web.
type LayoutResult struct {
	LabelsAcross  int     `json:"labels_across"`
	MaterialWidth float64 `json:"material_width_mm"`
}

// LabelsAcross returns how many labels of the given height fit side by side
// in the working width. It returns 0 when the label does not fit at all.
func LabelsAcross(height, workingWidth, lateralGap float64) int {
	if height <= 0 || height > workingWidth {
		return 0
	}
	if height*2+lateralGap > workingWidth {
		return 1
	}
	denominator := height + lateralGap
	if denominator <= Tolerance {
		return 0
	}
	return int(math.Floor((workingWidth + lateralGap) / denominator))
}

// MaterialWidth returns the web width needed for n lanes, edge waste included.
func MaterialWidth(n int, height, lateralGap, edgeWaste float64) float64 {
	if n <= 0 {
		return 0
	}
	gaps := max(0, n-1)
	return float64(n)*height + float64(gaps)*lateralGap + edgeWaste
}

// Layout computes lanes and material width for a label height on the press.
func Layout(height float64, c Constraints) LayoutResult {
	n := LabelsAcross(height, c.WorkingWidth, c.LateralGap)
	return LayoutResult{
		LabelsAcross:  n,
		MaterialWidth: MaterialWidth(n, height, c.LateralGap, c.EdgeWaste),
	}
}

// Exceeds reports whether the layout needs a wider web than the press accepts.
func (l LayoutResult) Exceeds(c Constraints) bool {
	return l.MaterialWidth > c.MaxMaterialWidth
}
