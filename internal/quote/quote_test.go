package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/labelquote/internal/press"
	"github.com/Simplici0/labelquote/internal/pricing"
	"github.com/Simplici0/labelquote/internal/settings"
	"github.com/Simplici0/labelquote/internal/store"
)

type fakeSource struct {
	values    settings.Values
	materials map[string]float64
	err       error
	calls     int
}

func (f *fakeSource) Settings(context.Context) (settings.Values, error) {
	f.calls++
	return f.values, f.err
}

func (f *fakeSource) Materials(context.Context) (map[string]float64, error) {
	return f.materials, f.err
}

type fakeRecorder struct {
	saved []store.Calculation
}

func (f *fakeRecorder) SaveCalculation(_ context.Context, c store.Calculation) (store.Calculation, error) {
	c.ID = "calc-1"
	f.saved = append(f.saved, c)
	return c, nil
}

func newTestService() (*Service, *fakeSource, *fakeRecorder) {
	src := &fakeSource{
		values:    settings.Defaults(),
		materials: map[string]float64{"Paper (chrome)": 39.95},
	}
	rec := &fakeRecorder{}
	return NewService(src, rec, press.DefaultConstraints(), nil), src, rec
}

func referenceRequest() Request {
	return Request{
		ClientName:   "Acme",
		ProductName:  "Honey jar",
		LabelWidth:   76,
		LabelHeight:  76,
		Quantity:     10000,
		Blank:        true,
		Material:     "Paper (chrome)",
		ExistingTool: "T-17",
	}
}

func TestCalculate_BlankReference(t *testing.T) {
	svc, _, rec := newTestService()

	q, err := svc.Calculate(context.Background(), referenceRequest(), true)
	require.NoError(t, err)
	require.True(t, q.Outcome.OK())

	assert.Equal(t, 75, q.Cylinder.ToothCount)
	assert.Equal(t, 2, q.Layout.LabelsAcross)
	assert.Equal(t, "Existing: T-17", q.Tool)
	assert.Equal(t, "1 h 13 min", q.TotalTime)

	r := q.Outcome.Result
	assert.Zero(t, r.Breakdown.InkCost)
	assert.Zero(t, r.Breakdown.PlateCost)
	assert.InDelta(t, 7388.200325520833, r.Totals.SellingPrice, 1e-6)

	require.Len(t, rec.saved, 1)
	assert.Equal(t, "Acme", rec.saved[0].ClientName)
	assert.Equal(t, 0, rec.saved[0].Colors)
	assert.Equal(t, 30.0, rec.saved[0].MachineSpeed)
	assert.Equal(t, r.Totals.SellingPrice, rec.saved[0].Results["total_selling_price"])
	require.NotNil(t, q.Saved)
	assert.Equal(t, "calc-1", q.Saved.ID)
}

func TestCalculate_Overrides(t *testing.T) {
	svc, _, rec := newTestService()
	req := referenceRequest()
	req.Blank = false
	req.Colors = 0
	req.MachineSpeed = 500
	zero := 0.0
	req.ProfitCoefficient = &zero
	req.Tool = "Rotary"

	q, err := svc.Calculate(context.Background(), req, false)
	require.NoError(t, err)
	require.True(t, q.Outcome.OK())
	assert.Empty(t, rec.saved)

	r := q.Outcome.Result
	assert.Zero(t, r.Totals.Profit)
	assert.Equal(t, 8000.0, r.Breakdown.ToolCost)
	// Non-blank jobs print at least one colour.
	assert.Equal(t, 2000.0, r.Breakdown.PlateCost)
	assert.Equal(t, "Rotary", q.Tool)
}

func TestCalculate_InfeasibleGeometry(t *testing.T) {
	svc, _, rec := newTestService()
	req := referenceRequest()
	req.LabelWidth = 1000

	q, err := svc.Calculate(context.Background(), req, true)
	require.NoError(t, err)
	assert.False(t, q.Outcome.OK())
	assert.Equal(t, pricing.FailureMissingGeometry, q.Outcome.Failure.Kind)
	assert.Contains(t, q.Diagnostic, "no cylinder found")
	assert.Equal(t, "N/A", q.TotalTime)
	assert.Empty(t, rec.saved)
}

func TestCalculate_Errors(t *testing.T) {
	svc, src, _ := newTestService()

	req := referenceRequest()
	req.Material = "Gold leaf"
	_, err := svc.Calculate(context.Background(), req, false)
	assert.ErrorIs(t, err, ErrUnknownMaterial)

	req = referenceRequest()
	req.Tool = "Laser"
	_, err = svc.Calculate(context.Background(), req, false)
	assert.Error(t, err)

	src.err = errors.New("db down")
	_, err = svc.Calculate(context.Background(), referenceRequest(), false)
	assert.ErrorContains(t, err, "load settings")
}

func TestOffer_DefaultTiersUseOneSettingsSnapshot(t *testing.T) {
	svc, src, _ := newTestService()
	src.values = settings.Values{settings.TierKey(1000): 0.5}.Merge()

	o, err := svc.Offer(context.Background(), referenceRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	require.Len(t, o.Schedule.Rows, len(settings.DefaultTiers))
	assert.Empty(t, o.Schedule.Warnings)
	assert.Equal(t, 0.5, o.Schedule.Rows[0].ProfitCoefficient)
	assert.Equal(t, 0.18, o.Schedule.Rows[4].ProfitCoefficient)
	for i, row := range o.Schedule.Rows {
		assert.Equal(t, settings.DefaultTiers[i], row.Quantity)
	}
}

func TestOffer_DegenerateLayoutWarnsEveryTier(t *testing.T) {
	svc, _, _ := newTestService()
	req := referenceRequest()
	req.LabelHeight = 250

	o, err := svc.Offer(context.Background(), req, []int{1000, 2000})
	require.NoError(t, err)
	assert.Empty(t, o.Schedule.Rows)
	assert.Len(t, o.Schedule.Warnings, 2)
	assert.Equal(t, 0, o.Layout.LabelsAcross)
}
