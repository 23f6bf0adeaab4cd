// Package offer sweeps the pricing pipeline across quantity tiers to build a
// price schedule.
package offer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/labelquote/internal/pricing"
)

// maxParallel bounds concurrently derived tiers.
const maxParallel = 8

// Row is one priced tier of the schedule.
type Row struct {
	Quantity          int     `json:"quantity"`
	ProfitCoefficient float64 `json:"profit_coefficient"`
	UnitPrice         float64 `json:"unit_price"`
	TotalPrice        float64 `json:"total_price"`
}

// TierWarning reports a tier that produced no row.
type TierWarning struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// Schedule is the result of a sweep. Rows keep the input tier order.
type Schedule struct {
	Rows     []Row         `json:"rows"`
	Warnings []TierWarning `json:"warnings,omitempty"`
}

type tierResult struct {
	row     *Row
	warning *TierWarning
}

// BuildSchedule derives base once per tier, overriding quantity and profit
// coefficient. A failing tier adds a warning and never aborts the sweep.
// The context only stops tiers that have not started yet.
func BuildSchedule(ctx context.Context, base pricing.JobSpec, tiers []int, coefficients map[int]float64) Schedule {
	results := make([]tierResult, len(tiers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, q := range tiers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = tierResult{warning: &TierWarning{Quantity: q, Reason: err.Error()}}
				return nil
			}
			results[i] = priceTier(base, q, coefficients)
			return nil
		})
	}
	_ = g.Wait()

	s := Schedule{Rows: make([]Row, 0, len(tiers))}
	for _, r := range results {
		if r.row != nil {
			s.Rows = append(s.Rows, *r.row)
		}
		if r.warning != nil {
			s.Warnings = append(s.Warnings, *r.warning)
		}
	}
	return s
}

func priceTier(base pricing.JobSpec, quantity int, coefficients map[int]float64) tierResult {
	if quantity < 1 {
		return tierResult{warning: &TierWarning{Quantity: quantity, Reason: "quantity must be >= 1"}}
	}
	coeff, ok := coefficients[quantity]
	if !ok {
		return tierResult{warning: &TierWarning{
			Quantity: quantity,
			Reason:   fmt.Sprintf("profit coefficient for %d not found", quantity),
		}}
	}

	job := base
	job.Quantity = quantity
	job.ProfitCoefficient = coeff

	out := pricing.Derive(job)
	if !out.OK() {
		return tierResult{warning: &TierWarning{Quantity: quantity, Reason: out.Failure.Error()}}
	}
	return tierResult{row: &Row{
		Quantity:          quantity,
		ProfitCoefficient: coeff,
		UnitPrice:         out.Result.Totals.PricePerPiece,
		TotalPrice:        out.Result.Totals.SellingPrice,
	}}
}
