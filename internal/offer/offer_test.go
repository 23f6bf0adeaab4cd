package offer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Simplici0/labelquote/internal/press"
	"github.com/Simplici0/labelquote/internal/pricing"
	"github.com/Simplici0/labelquote/internal/settings"
)

func baseJob(t *testing.T) pricing.JobSpec {
	t.Helper()
	c := press.DefaultConstraints()
	best, _, msg := press.Solve(76, c)
	require.NotNil(t, best, msg)

	return pricing.JobSpec{
		LabelWidth:    76,
		LabelHeight:   76,
		Cylinder:      best,
		LabelsAcross:  press.Layout(76, c).LabelsAcross,
		Colors:        2,
		MaterialPrice: 39.95,
		MachineSpeed:  30,
		Tool:          pricing.ToolSemirotary,
		Economics:     settings.Defaults().Economics(),
		Constraints:   c,
	}
}

func TestBuildSchedule_DefaultTiers(t *testing.T) {
	base := baseJob(t)
	coeffs := settings.Defaults().TierCoefficients(settings.DefaultTiers)

	s := BuildSchedule(context.Background(), base, settings.DefaultTiers, coeffs)
	require.Empty(t, s.Warnings)
	require.Len(t, s.Rows, len(settings.DefaultTiers))

	for i, row := range s.Rows {
		assert.Equal(t, settings.DefaultTiers[i], row.Quantity)
		assert.Equal(t, coeffs[row.Quantity], row.ProfitCoefficient)

		job := base
		job.Quantity = row.Quantity
		job.ProfitCoefficient = coeffs[row.Quantity]
		want := pricing.Derive(job).Result
		require.NotNil(t, want)
		assert.Equal(t, want.Totals.SellingPrice, row.TotalPrice)
		assert.Equal(t, want.Totals.PricePerPiece, row.UnitPrice)
	}

	// Unit price falls as setup and plates spread over more pieces.
	assert.Greater(t, s.Rows[0].UnitPrice, s.Rows[len(s.Rows)-1].UnitPrice)
}

func TestBuildSchedule_FailingTiersAreIsolated(t *testing.T) {
	base := baseJob(t)
	tiers := []int{1000, 0, 5000, 20000}
	coeffs := map[int]float64{1000: 0.3, 0: 0.3, 20000: 0.2}

	s := BuildSchedule(context.Background(), base, tiers, coeffs)

	require.Len(t, s.Rows, 2)
	assert.Equal(t, 1000, s.Rows[0].Quantity)
	assert.Equal(t, 20000, s.Rows[1].Quantity)

	require.Len(t, s.Warnings, 2)
	assert.Equal(t, 0, s.Warnings[0].Quantity)
	assert.Equal(t, 5000, s.Warnings[1].Quantity)
	assert.Contains(t, s.Warnings[1].Reason, "profit coefficient for 5000 not found")
}

func TestBuildSchedule_MissingGeometryWarnsEveryTier(t *testing.T) {
	base := baseJob(t)
	base.Cylinder = nil
	tiers := []int{1000, 10000}

	s := BuildSchedule(context.Background(), base, tiers, map[int]float64{1000: 0.3, 10000: 0.25})
	assert.Empty(t, s.Rows)
	require.Len(t, s.Warnings, 2)
	assert.Contains(t, s.Warnings[0].Reason, string(pricing.FailureMissingGeometry))
}

func TestBuildSchedule_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := BuildSchedule(ctx, baseJob(t), []int{1000}, map[int]float64{1000: 0.3})
	assert.Empty(t, s.Rows)
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0].Reason, "context canceled")
}

func TestPropertyBuildSchedulePreservesOrder(t *testing.T) {
	base := baseJob(t)
	rapid.Check(t, func(t *rapid.T) {
		tiers := rapid.SliceOfN(rapid.IntRange(1, 200000), 1, 20).Draw(t, "tiers")
		coeffs := make(map[int]float64, len(tiers))
		for _, q := range tiers {
			coeffs[q] = 0.2
		}

		s := BuildSchedule(context.Background(), base, tiers, coeffs)
		if len(s.Rows) != len(tiers) {
			t.Fatalf("got %d rows for %d tiers", len(s.Rows), len(tiers))
		}
		for i, row := range s.Rows {
			if row.Quantity != tiers[i] {
				t.Fatalf("row %d quantity %d, want %d", i, row.Quantity, tiers[i])
			}
		}
	})
}
