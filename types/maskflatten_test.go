package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenMaskScenario(t *testing.T) {
	m := Mask{
		{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.2}, {X: 0.3, Y: 0.4}},
		{{X: 0.5, Y: 0.5}, {X: 0.6, Y: 0.5}, {X: 0.55, Y: 0.6}},
	}
	got := FlattenMask(m)
	require64 := func(v float32) float64 { return float64(v) }
	assert.Len(t, got, 13)
	want := []float64{0.1, 0.2, 0.3, 0.2, 0.3, 0.4}
	for i, w := range want {
		assert.InDelta(t, w, require64(got[i]), 1e-6)
	}
	assert.True(t, math.IsNaN(float64(got[6])))
	want2 := []float64{0.5, 0.5, 0.6, 0.5, 0.55, 0.6}
	for i, w := range want2 {
		assert.InDelta(t, w, require64(got[7+i]), 1e-6)
	}
}

func TestMaskFlattenRoundTrip(t *testing.T) {
	m := Mask{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		{{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.25}, {X: 0.5, Y: 0.75}},
	}
	got := UnflattenMask(FlattenMask(m))
	assert.Equal(t, m, got)
}

func TestUnflattenDropsShortRings(t *testing.T) {
	flat := []float32{0, 0, 1, 1, float32(math.NaN()), 0.1, 0.1, 0.2, 0.2, 0.3, 0.3}
	got := UnflattenMask(flat)
	assert.Len(t, got, 1)
	assert.Len(t, got[0], 3)
}

func TestUnflattenFiniteNaNTerminatesPolygon(t *testing.T) {
	flat := []float32{0, 0, 1, 0, 1, float32(math.NaN()), 0.1, 0.1, 0.2, 0.2, 0.3, 0.3}
	got := UnflattenMask(flat)
	// the first ring only reached 2 points before being terminated early,
	// so it's dropped as degenerate; only the second ring survives.
	assert.Len(t, got, 1)
	assert.Len(t, got[0], 3)
}
