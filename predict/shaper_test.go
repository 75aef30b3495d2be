package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrosmart/rules"
)

func TestApplicationRateBands(t *testing.T) {
	cases := []struct {
		total float64
		rate  float64
		desc  string
	}{
		{50, 225, "High (200-250 kg/ha)"},
		{99, 225, "High (200-250 kg/ha)"},
		{100, 125, "Medium (100-150 kg/ha)"},
		{150, 125, "Medium (100-150 kg/ha)"},
		{199, 125, "Medium (100-150 kg/ha)"},
		{200, 75, "Low (50-100 kg/ha)"},
		{250, 75, "Low (50-100 kg/ha)"},
	}
	for _, tc := range cases {
		rate, desc := ApplicationRate(tc.total)
		assert.Equal(t, tc.rate, rate, "total %v", tc.total)
		assert.Equal(t, tc.desc, desc, "total %v", tc.total)
	}
}

func TestNPKForFertilizer(t *testing.T) {
	assert.Equal(t, rules.NPK{N: 46}, NPKForFertilizer("UREA"))
	assert.Equal(t, rules.NPK{N: 46}, NPKForFertilizer("Urea + DAP"))
	assert.Equal(t, rules.NPK{N: 18, P: 46}, NPKForFertilizer("DAP"))
	assert.Equal(t, rules.NPK{K: 60}, NPKForFertilizer("MOP"))
	assert.Equal(t, rules.NPK{K: 60}, NPKForFertilizer("Muriate of Potash"))
	assert.Equal(t, rules.NPK{N: 10, P: 10, K: 10}, NPKForFertilizer("10-26-26"))
}

func TestYieldFromModel(t *testing.T) {
	assert.Equal(t, 5000.0, YieldFromModel(50000))
	assert.Equal(t, 100.0, YieldFromModel(500))
	assert.Equal(t, 100.0, YieldFromModel(-20))
}

func TestShapeClassification(t *testing.T) {
	res, err := shapeClassification([]float64{0.1, 0.4, 0.4, 0.05, 0.05}, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Label)
	assert.Equal(t, 0.4, res.Confidence)
	assert.Equal(t, []Alternative{{"c", 0.4}, {"a", 0.1}, {"d", 0.05}}, res.Alternatives)

	res, err = shapeClassification([]float64{1}, []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", res.Label)
	assert.Empty(t, res.Alternatives)

	_, err = shapeClassification([]float64{0.5, 0.5}, []string{"a"})
	assert.ErrorIs(t, err, ErrInference)
}

func TestShapeYieldDerivedValues(t *testing.T) {
	res := shapeYield(5000)
	assert.InDelta(t, 4500, res.Lower, 1e-6)
	assert.InDelta(t, 5500, res.Upper, 1e-6)
	assert.InDelta(t, 4250, res.RegionalAverage, 1e-6)
	assert.InDelta(t, 6000, res.Optimal, 1e-6)
}

func TestShapeRuleYieldFloorsEveryFigure(t *testing.T) {
	res := shapeRuleYield(rules.YieldEstimate{Estimated: 0.05, Lower: 0.04, Upper: 0.06, RegionalAverage: 0.05, Optimal: 0.07})
	for _, v := range []float64{res.EstimatedKgPerHa, res.Lower, res.Upper, res.RegionalAverage, res.Optimal} {
		assert.GreaterOrEqual(t, v, MinYieldKgPerHa)
	}
	assert.LessOrEqual(t, res.Lower, res.EstimatedKgPerHa)
	assert.GreaterOrEqual(t, res.Upper, res.EstimatedKgPerHa)
	assert.Equal(t, SourceRules, res.Source)

	res = shapeRuleYield(rules.YieldEstimate{Estimated: 4, Lower: 3.6, Upper: 4.4, RegionalAverage: 3.4, Optimal: 4.8})
	assert.InDelta(t, 4000, res.EstimatedKgPerHa, 1e-6)
	assert.InDelta(t, 3600, res.Lower, 1e-6)
	assert.InDelta(t, 4800, res.Optimal, 1e-6)
}
