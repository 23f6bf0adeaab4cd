package pricing

import (
	"fmt"

	"github.com/Simplici0/labelquote/internal/press"
)

// ToolClass identifies the die-cutting tool a job needs.
type ToolClass string

const (
	// ToolNone reuses an existing tool and costs nothing.
	ToolNone       ToolClass = "None"
	ToolSemirotary ToolClass = "Semirotary"
	ToolRotary     ToolClass = "Rotary"
)

// ParseToolClass maps a tool name to a ToolClass.
func ParseToolClass(s string) (ToolClass, error) {
	switch ToolClass(s) {
	case ToolNone, ToolSemirotary, ToolRotary:
		return ToolClass(s), nil
	case "":
		return ToolNone, nil
	}
	return "", fmt.Errorf("unknown tool class %q", s)
}

// Process holds the process constants of the press line.
type Process struct {
	BaseWasteLength   float64 // m
	WastePerColor     float64 // m
	SetupPerColor     float64 // min
	CleanupMinutes    float64
	InkGramsPerM2     float64
	VarnishGramsPerM2 float64
}

// DefaultProcess returns the process constants of the reference line.
func DefaultProcess() Process {
	return Process{
		BaseWasteLength:   50,
		WastePerColor:     50,
		SetupPerColor:     30,
		CleanupMinutes:    30,
		InkGramsPerM2:     3.0,
		VarnishGramsPerM2: 4.0,
	}
}

// Economics represents unit prices shared across calculations.
type Economics struct {
	InkPricePerKg     float64
	VarnishPricePerKg float64
	PlatePerColor     float64
	LaborPerHour      float64
	ToolSemirotary    float64
	ToolRotary        float64
	Process           Process
}

// ToolPrice returns the price charged for a tool class.
func (e Economics) ToolPrice(tool ToolClass) float64 {
	switch tool {
	case ToolSemirotary:
		return e.ToolSemirotary
	case ToolRotary:
		return e.ToolRotary
	}
	return 0
}

// JobSpec represents every input of a single calculation.
type JobSpec struct {
	Quantity          int
	LabelWidth        float64
	LabelHeight       float64
	Cylinder          *press.CylinderSolution
	LabelsAcross      int
	Blank             bool
	Colors            int
	Varnish           bool
	MaterialPrice     float64 // per m²
	MachineSpeed      float64 // m/min
	Tool              ToolClass
	ExistingTool      string
	ProfitCoefficient float64
	Economics         Economics
	Constraints       press.Constraints
}

// ToolLabel describes the tool for history records.
func (j JobSpec) ToolLabel() string {
	if j.Tool == ToolNone && j.ExistingTool != "" {
		return "Existing: " + j.ExistingTool
	}
	if j.Tool == "" {
		return string(ToolNone)
	}
	return string(j.Tool)
}

// EffectiveColors returns the colour count a job is calculated with:
// none for blank jobs, at least one otherwise.
func EffectiveColors(blank bool, colors int) int {
	if blank {
		return 0
	}
	return max(colors, 1)
}

// Material contains web width, lengths and areas.
type Material struct {
	RequiredWidth    float64 `json:"required_material_width_mm"`
	WidthExceeded    bool    `json:"material_width_exceeded"`
	ProductionLength float64 `json:"total_production_length_m"`
	ProductionArea   float64 `json:"total_production_area_m2"`
	WasteLength      float64 `json:"waste_length_m"`
	WasteArea        float64 `json:"waste_area_m2"`
	FinalLength      float64 `json:"total_final_length_m"`
	FinalArea        float64 `json:"total_final_area_m2"`
}

// Time contains the press time split, in minutes.
type Time struct {
	Setup      float64 `json:"setup_time_min"`
	Production float64 `json:"production_time_min"`
	Cleanup    float64 `json:"cleanup_time_min"`
	Total      float64 `json:"total_time_min"`
}

// Breakdown contains consumption and line-item costs.
type Breakdown struct {
	InkKg        float64 `json:"ink_consumption_kg"`
	InkCost      float64 `json:"ink_cost"`
	VarnishKg    float64 `json:"varnish_consumption_kg"`
	VarnishCost  float64 `json:"varnish_cost"`
	PlateCost    float64 `json:"plate_cost"`
	MaterialCost float64 `json:"material_cost"`
	LaborCost    float64 `json:"labor_cost"`
	ToolCost     float64 `json:"tool_cost"`
}

// Totals contains roll-up values of the calculation.
type Totals struct {
	ProductionCost    float64 `json:"total_production_cost"`
	Profit            float64 `json:"profit"`
	ProfitCoefficient float64 `json:"profit_coefficient_used"`
	SellingPrice      float64 `json:"total_selling_price"`
	PricePerPiece     float64 `json:"selling_price_per_piece"`
}

// Result groups the full output of a successful calculation.
type Result struct {
	Material  Material  `json:"material"`
	Time      Time      `json:"time"`
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Fields flattens the result into named values for report and history writers.
func (r Result) Fields() map[string]float64 {
	exceeded := 0.0
	if r.Material.WidthExceeded {
		exceeded = 1
	}
	return map[string]float64{
		"required_material_width_mm": r.Material.RequiredWidth,
		"material_width_exceeded":    exceeded,
		"total_production_length_m":  r.Material.ProductionLength,
		"total_production_area_m2":   r.Material.ProductionArea,
		"waste_length_m":             r.Material.WasteLength,
		"waste_area_m2":              r.Material.WasteArea,
		"total_final_length_m":       r.Material.FinalLength,
		"total_final_area_m2":        r.Material.FinalArea,
		"setup_time_min":             r.Time.Setup,
		"production_time_min":        r.Time.Production,
		"cleanup_time_min":           r.Time.Cleanup,
		"total_time_min":             r.Time.Total,
		"ink_consumption_kg":         r.Breakdown.InkKg,
		"ink_cost":                   r.Breakdown.InkCost,
		"varnish_consumption_kg":     r.Breakdown.VarnishKg,
		"varnish_cost":               r.Breakdown.VarnishCost,
		"plate_cost":                 r.Breakdown.PlateCost,
		"material_cost":              r.Breakdown.MaterialCost,
		"labor_cost":                 r.Breakdown.LaborCost,
		"tool_cost":                  r.Breakdown.ToolCost,
		"total_production_cost":      r.Totals.ProductionCost,
		"profit":                     r.Totals.Profit,
		"profit_coefficient_used":    r.Totals.ProfitCoefficient,
		"total_selling_price":        r.Totals.SellingPrice,
		"selling_price_per_piece":    r.Totals.PricePerPiece,
	}
}

// FailureKind classifies why a calculation could not run.
type FailureKind string

const (
	FailureMissingGeometry  FailureKind = "missing_geometry"
	FailureDegenerateLayout FailureKind = "degenerate_layout"
)

// Failure describes a calculation that produced no result.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome is either a Result or a Failure, never both.
type Outcome struct {
	Result  *Result  `json:"result,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the calculation succeeded.
func (o Outcome) OK() bool {
	return o.Result != nil
}

func fail(kind FailureKind, format string, args ...any) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// Derive computes material, time, cost and price values for a job.
func Derive(job JobSpec) Outcome {
	if job.Cylinder == nil {
		return fail(FailureMissingGeometry, "no cylinder solution for W=%.3fmm", job.LabelWidth)
	}
	if job.LabelsAcross <= 0 {
		return fail(FailureDegenerateLayout, "label height %.3fmm does not fit the working width", job.LabelHeight)
	}

	proc := job.Economics.Process
	c := job.Constraints

	var m Material
	m.RequiredWidth = press.MaterialWidth(job.LabelsAcross, job.LabelHeight, c.LateralGap, c.EdgeWaste)
	m.WidthExceeded = m.RequiredWidth > c.MaxMaterialWidth

	segment := job.LabelWidth + job.Cylinder.Gap
	quantity := float64(max(job.Quantity, 0))
	m.ProductionLength = (quantity / float64(job.LabelsAcross)) * segment / 1000
	webWidth := m.RequiredWidth / 1000
	if m.RequiredWidth > 0 {
		m.ProductionArea = m.ProductionLength * webWidth
	}

	m.WasteLength = proc.BaseWasteLength
	if !job.Blank {
		m.WasteLength += float64(job.Colors) * proc.WastePerColor
	}
	if m.RequiredWidth > 0 {
		m.WasteArea = m.WasteLength * webWidth
	}
	m.FinalLength = m.ProductionLength + m.WasteLength
	m.FinalArea = m.ProductionArea + m.WasteArea

	var tm Time
	setupColors := job.Colors
	if job.Blank {
		setupColors = 1
	}
	tm.Setup = float64(setupColors) * proc.SetupPerColor
	if job.MachineSpeed > 0 {
		tm.Production = m.ProductionLength / job.MachineSpeed
	}
	tm.Cleanup = proc.CleanupMinutes
	tm.Total = tm.Setup + tm.Production + tm.Cleanup

	econ := job.Economics
	var b Breakdown
	if !job.Blank && job.Colors > 0 && m.ProductionArea > 0 {
		b.InkKg = m.ProductionArea * float64(job.Colors) * proc.InkGramsPerM2 / 1000
		b.InkCost = b.InkKg * econ.InkPricePerKg
	}
	if job.Varnish && m.ProductionArea > 0 {
		b.VarnishKg = m.ProductionArea * proc.VarnishGramsPerM2 / 1000
		b.VarnishCost = b.VarnishKg * econ.VarnishPricePerKg
	}
	if !job.Blank && job.Colors > 0 {
		b.PlateCost = float64(job.Colors) * econ.PlatePerColor
	}
	if m.FinalArea > 0 && job.MaterialPrice >= 0 {
		b.MaterialCost = m.FinalArea * job.MaterialPrice
	}
	if tm.Total > 0 && econ.LaborPerHour >= 0 {
		b.LaborCost = (tm.Total / 60) * econ.LaborPerHour
	}
	b.ToolCost = econ.ToolPrice(job.Tool)

	var t Totals
	t.ProductionCost = b.InkCost + b.VarnishCost + b.PlateCost + b.MaterialCost + b.LaborCost + b.ToolCost
	// Profit is pegged to material cost, not to the production cost.
	if b.MaterialCost > 0 && job.ProfitCoefficient > 0 {
		t.Profit = b.MaterialCost * job.ProfitCoefficient
	}
	t.ProfitCoefficient = job.ProfitCoefficient
	t.SellingPrice = t.ProductionCost + t.Profit
	if job.Quantity > 0 {
		t.PricePerPiece = t.SellingPrice / float64(job.Quantity)
	}

	return Outcome{Result: &Result{
		Material:  m,
		Time:      tm,
		Breakdown: b,
		Totals:    t,
	}}
}
