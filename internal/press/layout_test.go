package press

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLabelsAcross(t *testing.T) {
	tests := []struct {
		name   string
		height float64
		want   int
	}{
		{name: "reference two lanes", height: 76, want: 2},
		{name: "single lane", height: 100, want: 1},
		{name: "exactly working width", height: 190, want: 1},
		{name: "too tall", height: 190.5, want: 0},
		{name: "zero height", height: 0, want: 0},
		{name: "negative height", height: -5, want: 0},
		{name: "narrow labels", height: 20, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelsAcross(tt.height, 190, 5))
		})
	}
}

func TestMaterialWidth(t *testing.T) {
	assert.InDelta(t, 167.0, MaterialWidth(2, 76, 5, 10), 1e-9)
	assert.InDelta(t, 110.0, MaterialWidth(1, 100, 5, 10), 1e-9)
	assert.Equal(t, 0.0, MaterialWidth(0, 76, 5, 10))
	assert.Equal(t, 0.0, MaterialWidth(-1, 76, 5, 10))
}

func TestLayout_UsesConstraints(t *testing.T) {
	c := DefaultConstraints()
	l := Layout(76, c)
	assert.Equal(t, 2, l.LabelsAcross)
	assert.InDelta(t, 167.0, l.MaterialWidth, 1e-9)
	assert.False(t, l.Exceeds(c))

	narrowWeb := c
	narrowWeb.MaxMaterialWidth = 180
	wide := Layout(92, narrowWeb)
	assert.Equal(t, 2, wide.LabelsAcross)
	assert.InDelta(t, 199.0, wide.MaterialWidth, 1e-9)
	assert.True(t, wide.Exceeds(narrowWeb))

	single := Layout(95, c)
	assert.Equal(t, 1, single.LabelsAcross)
	assert.InDelta(t, 105.0, single.MaterialWidth, 1e-9)
}

func TestPropertyLabelsAcrossZeroWhenTooTall(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		working := rapid.Float64Range(1, 400).Draw(t, "working")
		height := working + rapid.Float64Range(0.001, 100).Draw(t, "excess")
		if n := LabelsAcross(height, working, 5); n != 0 {
			t.Fatalf("LabelsAcross(%v, %v) = %d, want 0", height, working, n)
		}
	})
}

func TestPropertyLabelsAcrossMonotoneInWorkingWidth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		height := rapid.Float64Range(1, 200).Draw(t, "height")
		gap := rapid.Float64Range(0, 20).Draw(t, "gap")
		w1 := rapid.Float64Range(1, 400).Draw(t, "w1")
		w2 := w1 + rapid.Float64Range(0, 200).Draw(t, "delta")
		if LabelsAcross(height, w1, gap) > LabelsAcross(height, w2, gap) {
			t.Fatalf("lanes decreased from width %v to %v (h=%v, gap=%v)", w1, w2, height, gap)
		}
	})
}
