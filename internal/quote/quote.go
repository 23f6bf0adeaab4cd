// Package quote turns a label request into a priced calculation using a
// settings snapshot captured once per call.
package quote

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/labelquote/internal/offer"
	"github.com/Simplici0/labelquote/internal/press"
	"github.com/Simplici0/labelquote/internal/pricing"
	"github.com/Simplici0/labelquote/internal/settings"
	"github.com/Simplici0/labelquote/internal/store"
)

// ErrUnknownMaterial is returned when the requested material has no price.
var ErrUnknownMaterial = errors.New("unknown material")

// Source supplies the settings and material price mappings.
type Source interface {
	Settings(ctx context.Context) (settings.Values, error)
	Materials(ctx context.Context) (map[string]float64, error)
}

// Recorder stores calculation history.
type Recorder interface {
	SaveCalculation(ctx context.Context, c store.Calculation) (store.Calculation, error)
}

// Request holds the user inputs of a quote.
type Request struct {
	ClientName   string  `json:"client_name" validate:"max=200"`
	ProductName  string  `json:"product_name" validate:"max=200"`
	LabelWidth   float64 `json:"template_width" validate:"gt=0"`
	LabelHeight  float64 `json:"template_height" validate:"gt=0"`
	Quantity     int     `json:"quantity" validate:"gte=1"`
	Blank        bool    `json:"is_blank"`
	Colors       int     `json:"num_colors" validate:"gte=0,lte=12"`
	Varnish      bool    `json:"is_uv_varnish"`
	Material     string  `json:"material" validate:"required"`
	MachineSpeed float64 `json:"machine_speed" validate:"omitempty,gte=10,lte=120"`
	Tool         string  `json:"tool" validate:"omitempty,oneof=None Semirotary Rotary"`
	ExistingTool string  `json:"existing_tool" validate:"max=100"`

	// ProfitCoefficient overrides the single-calculation coefficient when set.
	ProfitCoefficient *float64 `json:"profit_coefficient" validate:"omitempty,gte=0"`
}

// Quote is a single-quantity calculation together with its geometry.
type Quote struct {
	Cylinder     *press.CylinderSolution `json:"cylinder"`
	Candidates   int                     `json:"candidates"`
	Diagnostic   string                  `json:"diagnostic"`
	Layout       press.LayoutResult      `json:"layout"`
	Tool         string                  `json:"tool"`
	Outcome      pricing.Outcome         `json:"outcome"`
	TotalTime    string                  `json:"total_time"`
	Saved        *store.Calculation      `json:"saved,omitempty"`
	job          pricing.JobSpec
	materialName string
}

// Service computes quotes and offers.
type Service struct {
	source      Source
	recorder    Recorder
	constraints press.Constraints
	logger      *zap.Logger
}

// NewService returns a Service. recorder may be nil when history is not kept.
func NewService(source Source, recorder Recorder, constraints press.Constraints, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, recorder: recorder, constraints: constraints, logger: logger}
}

// Constraints returns the press constraints used for every calculation.
func (s *Service) Constraints() press.Constraints {
	return s.constraints
}

func (s *Service) prepare(ctx context.Context, req Request) (Quote, settings.Values, error) {
	values, err := s.source.Settings(ctx)
	if err != nil {
		return Quote{}, nil, fmt.Errorf("load settings: %w", err)
	}
	materials, err := s.source.Materials(ctx)
	if err != nil {
		return Quote{}, nil, fmt.Errorf("load materials: %w", err)
	}
	price, ok := materials[req.Material]
	if !ok {
		return Quote{}, nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, req.Material)
	}
	tool, err := pricing.ParseToolClass(req.Tool)
	if err != nil {
		return Quote{}, nil, err
	}

	best, all, diagnostic := press.Solve(req.LabelWidth, s.constraints)
	layout := press.Layout(req.LabelHeight, s.constraints)

	speed := values.MachineSpeed()
	if req.MachineSpeed > 0 {
		speed = settings.ClampSpeed(req.MachineSpeed)
	}
	coeff := values.Get(settings.KeySingleProfitCoeff)
	if req.ProfitCoefficient != nil {
		coeff = *req.ProfitCoefficient
	}

	job := pricing.JobSpec{
		Quantity:          req.Quantity,
		LabelWidth:        req.LabelWidth,
		LabelHeight:       req.LabelHeight,
		Cylinder:          best,
		LabelsAcross:      layout.LabelsAcross,
		Blank:             req.Blank,
		Colors:            pricing.EffectiveColors(req.Blank, req.Colors),
		Varnish:           req.Varnish,
		MaterialPrice:     price,
		MachineSpeed:      speed,
		Tool:              tool,
		ExistingTool:      req.ExistingTool,
		ProfitCoefficient: coeff,
		Economics:         values.Economics(),
		Constraints:       s.constraints,
	}

	return Quote{
		Cylinder:     best,
		Candidates:   len(all),
		Diagnostic:   diagnostic,
		Layout:       layout,
		Tool:         job.ToolLabel(),
		job:          job,
		materialName: req.Material,
	}, values, nil
}

// Calculate prices a single quantity. When save is set and the calculation
// succeeds, the result is recorded in the history.
func (s *Service) Calculate(ctx context.Context, req Request, save bool) (Quote, error) {
	q, _, err := s.prepare(ctx, req)
	if err != nil {
		return Quote{}, err
	}

	q.Outcome = pricing.Derive(q.job)
	if !q.Outcome.OK() {
		s.logger.Info("calculation failed",
			zap.String("kind", string(q.Outcome.Failure.Kind)),
			zap.String("message", q.Outcome.Failure.Message),
			zap.Float64("width", req.LabelWidth),
			zap.Float64("height", req.LabelHeight),
		)
		q.TotalTime = pricing.FormatDuration(-1)
		return q, nil
	}

	r := q.Outcome.Result
	q.TotalTime = pricing.FormatDuration(r.Time.Total)
	if r.Material.WidthExceeded {
		s.logger.Warn("required material width exceeds press maximum",
			zap.Float64("required_mm", r.Material.RequiredWidth),
			zap.Float64("max_mm", s.constraints.MaxMaterialWidth),
		)
	}

	if save && s.recorder != nil {
		saved, err := s.recorder.SaveCalculation(ctx, store.Calculation{
			ClientName:        req.ClientName,
			ProductName:       req.ProductName,
			LabelWidth:        req.LabelWidth,
			LabelHeight:       req.LabelHeight,
			Quantity:          req.Quantity,
			Colors:            q.job.Colors,
			Blank:             req.Blank,
			Varnish:           req.Varnish,
			MaterialName:      q.materialName,
			Tool:              q.Tool,
			MachineSpeed:      q.job.MachineSpeed,
			ProfitCoefficient: q.job.ProfitCoefficient,
			TotalPrice:        r.Totals.SellingPrice,
			PricePerPiece:     r.Totals.PricePerPiece,
			Results:           r.Fields(),
		})
		if err != nil {
			return Quote{}, fmt.Errorf("save calculation: %w", err)
		}
		q.Saved = &saved
	}

	s.logger.Debug("calculation done",
		zap.Int("quantity", req.Quantity),
		zap.Float64("selling_price", r.Totals.SellingPrice),
	)
	return q, nil
}

// Offer is a multi-quantity price schedule.
type Offer struct {
	Cylinder *press.CylinderSolution `json:"cylinder"`
	Layout   press.LayoutResult      `json:"layout"`
	Tool     string                  `json:"tool"`
	Schedule offer.Schedule          `json:"schedule"`
}

// Offer prices every tier with its own profit coefficient. Geometry and
// layout are solved once and shared by all tiers. Nil tiers select the
// default tier list.
func (s *Service) Offer(ctx context.Context, req Request, tiers []int) (Offer, error) {
	if len(tiers) == 0 {
		tiers = settings.DefaultTiers
	}
	q, values, err := s.prepare(ctx, req)
	if err != nil {
		return Offer{}, err
	}

	schedule := offer.BuildSchedule(ctx, q.job, tiers, values.TierCoefficients(tiers))
	for _, w := range schedule.Warnings {
		s.logger.Warn("offer tier skipped", zap.Int("quantity", w.Quantity), zap.String("reason", w.Reason))
	}

	return Offer{
		Cylinder: q.Cylinder,
		Layout:   q.Layout,
		Tool:     q.Tool,
		Schedule: schedule,
	}, nil
}
