package friction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricWith(sigma, tourismShare float64) Metric {
	return Metric{Sigma: sigma, TourismShare: tourismShare}
}

func TestSchemeValidation(t *testing.T) {
	tests := []struct {
		name    string
		buckets []Bucket
	}{
		{
			name:    "empty",
			buckets: nil,
		},
		{
			name: "does not start at zero",
			buckets: []Bucket{
				{Lo: 0.1, Hi: 1, Label: "A"},
			},
		},
		{
			name: "does not end at one",
			buckets: []Bucket{
				{Lo: 0, Hi: 0.9, Label: "A"},
			},
		},
		{
			name: "gap between buckets",
			buckets: []Bucket{
				{Lo: 0, Hi: 0.4, Label: "A"},
				{Lo: 0.5, Hi: 1, Label: "B"},
			},
		},
		{
			name: "overlapping buckets",
			buckets: []Bucket{
				{Lo: 0, Hi: 0.6, Label: "A"},
				{Lo: 0.5, Hi: 1, Label: "B"},
			},
		},
		{
			name: "duplicate label",
			buckets: []Bucket{
				{Lo: 0, Hi: 0.5, Label: "A"},
				{Lo: 0.5, Hi: 1, Label: "A"},
			},
		},
		{
			name: "gate threshold out of range",
			buckets: []Bucket{
				{Lo: 0, Hi: 1, Label: "A", Gate: &Gate{TourismShareAbove: 1.2, Label: "B"}},
			},
		},
		{
			name: "gate label equals bucket label",
			buckets: []Bucket{
				{Lo: 0, Hi: 1, Label: "A", Gate: &Gate{TourismShareAbove: 0.3, Label: "A"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheme("test", tt.buckets)
			require.Error(t, err)
			assert.True(t, IsType(err, ErrorTypeSchemeInvalid))
		})
	}
}

func TestBuiltinSchemesAreValid(t *testing.T) {
	for _, s := range BuiltinSchemes() {
		assert.NotEmpty(t, s.Labels(), s.ID())
	}
}

func TestPolicy3Classify(t *testing.T) {
	s := Policy3()
	tests := []struct {
		sigma float64
		label string
		rank  int
	}{
		{0, "HEALTHY", 0},
		{0.2499, "HEALTHY", 0},
		{0.25, "TRANSITIONAL", 1}, // lower bound is inclusive
		{0.4999, "TRANSITIONAL", 1},
		{0.50, "PROBLEMATIC", 2},
		{0.99, "PROBLEMATIC", 2},
	}
	for _, tt := range tests {
		a := s.Classify(metricWith(tt.sigma, 0))
		assert.Equal(t, tt.label, a.Label, "sigma=%v", tt.sigma)
		assert.Equal(t, tt.rank, a.Rank, "sigma=%v", tt.sigma)
	}
}

func TestPolicy4GateOnTourismShare(t *testing.T) {
	s := Policy4()

	drained := s.Classify(metricWith(0.6, 0.35))
	assert.Equal(t, "TOURIST_DRAIN", drained.Label)

	failed := s.Classify(metricWith(0.6, 0.10))
	assert.Equal(t, "SYSTEM_FAILURE", failed.Label)

	// The gate is strictly greater-than.
	atThreshold := s.Classify(metricWith(0.6, 0.30))
	assert.Equal(t, "SYSTEM_FAILURE", atThreshold.Label)

	// Both labels of the gated bucket share the rank.
	assert.Equal(t, drained.Rank, failed.Rank)

	// The gate only applies inside its bucket.
	healthy := s.Classify(metricWith(0.1, 0.9))
	assert.Equal(t, "HEALTHY", healthy.Label)
}

func TestEU6Classify(t *testing.T) {
	s := EU6()
	tests := []struct {
		sigma float64
		label string
	}{
		{0.05, "EU_EFFICIENT"},
		{0.10, "EU_NORMAL"},
		{0.15, "MEDITERRANEAN_ACCEPTABLE"},
		{0.20, "ELEVATED_FRICTION"},
		{0.30, "STRUCTURAL_DYSFUNCTION"},
		{0.50, "MARKET_COLLAPSE"},
		{0.95, "MARKET_COLLAPSE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, s.Classify(metricWith(tt.sigma, 0)).Label, "sigma=%v", tt.sigma)
	}
}

func TestSchemeByID(t *testing.T) {
	s, err := SchemeByID(SchemeEU6)
	require.NoError(t, err)
	assert.Equal(t, SchemeEU6, s.ID())

	_, err = SchemeByID("nonexistent")
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeSchemeInvalid))
}

func TestClassifyAll(t *testing.T) {
	out := ClassifyAll(BuiltinSchemes(), metricWith(0.35, 0.25))
	assert.Equal(t, "TRANSITIONAL", out[SchemePolicy3].Label)
	assert.Equal(t, "TRANSITIONAL", out[SchemePolicy4].Label)
	assert.Equal(t, "STRUCTURAL_DYSFUNCTION", out[SchemeEU6].Label)
}
