package predict

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"agrosmart/rules"
)

const (
	maxAlternatives = 3

	// MinYieldKgPerHa floors every yield estimate.
	MinYieldKgPerHa = 100.0
	// t/ha as produced by the rule tables to kg/ha.
	tonneToKilogram = 1000
	// hg/ha as produced by the yield model to kg/ha.
	hectogramToKilogram = 0.1

	modelTiming = "Apply at planting and during growth stages"
)

// shapeClassification picks the most probable class (first on ties) and the
// next most probable classes as alternatives. Alternatives are not filtered
// by score.
func shapeClassification(proba []float64, classes []string) (CropResult, error) {
	if len(proba) == 0 || len(proba) != len(classes) {
		return CropResult{}, fmt.Errorf("%w: %d probabilities for %d classes", ErrInference, len(proba), len(classes))
	}
	order := make([]int, len(proba))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return proba[order[a]] > proba[order[b]] })

	res := CropResult{
		Label:        classes[order[0]],
		Confidence:   clampUnit(proba[order[0]]),
		Alternatives: make([]Alternative, 0, maxAlternatives),
		Source:       SourceModel,
	}
	for _, idx := range order[1:] {
		if len(res.Alternatives) == maxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, Alternative{Label: classes[idx], Score: clampUnit(proba[idx])})
	}
	return res, nil
}

// ApplicationRate bands the current N+P+K total: soils low in nutrients get
// the high rate.
func ApplicationRate(npkTotal float64) (float64, string) {
	switch {
	case npkTotal < 100:
		return 225, "High (200-250 kg/ha)"
	case npkTotal < 200:
		return 125, "Medium (100-150 kg/ha)"
	default:
		return 75, "Low (50-100 kg/ha)"
	}
}

// NPKForFertilizer returns the nominal nutrient ratio of a fertilizer name.
func NPKForFertilizer(name string) rules.NPK {
	folded := cases.Fold().String(name)
	switch {
	case strings.Contains(folded, "urea"):
		return rules.NPK{N: 46}
	case strings.Contains(folded, "dap"):
		return rules.NPK{N: 18, P: 46}
	case strings.Contains(folded, "mop"), strings.Contains(folded, "potash"):
		return rules.NPK{K: 60}
	default:
		return rules.NPK{N: 10, P: 10, K: 10}
	}
}

func shapeFertilizer(name string, confidence float64, in FertilizerInput) FertilizerResult {
	rate, desc := ApplicationRate(in.N + in.P + in.K)
	confidence = clampUnit(confidence)
	return FertilizerResult{
		Name:            name,
		ApplicationRate: rate,
		RateDescription: desc,
		Confidence:      confidence,
		NPK:             NPKForFertilizer(name),
		Timing:          modelTiming,
		Notes:           fmt.Sprintf("Recommendation based on ML model (confidence: %.2f%%)", confidence*100),
		Source:          SourceModel,
	}
}

// YieldFromModel converts the model's hg/ha output to kg/ha with the floor applied.
func YieldFromModel(raw float64) float64 {
	return math.Max(MinYieldKgPerHa, raw*hectogramToKilogram)
}

// shapeRuleYield converts a rule-table estimate to kg/ha, flooring every figure.
func shapeRuleYield(est rules.YieldEstimate) YieldResult {
	floor := func(tonnes float64) float64 {
		return math.Max(MinYieldKgPerHa, tonnes*tonneToKilogram)
	}
	return YieldResult{
		EstimatedKgPerHa: floor(est.Estimated),
		Lower:            floor(est.Lower),
		Upper:            floor(est.Upper),
		RegionalAverage:  floor(est.RegionalAverage),
		Optimal:          floor(est.Optimal),
		Source:           SourceRules,
	}
}

func shapeYield(kgPerHa float64) YieldResult {
	return YieldResult{
		EstimatedKgPerHa: kgPerHa,
		Lower:            kgPerHa * 0.9,
		Upper:            kgPerHa * 1.1,
		RegionalAverage:  kgPerHa * 0.85,
		Optimal:          kgPerHa * 1.2,
		Source:           SourceModel,
	}
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
