package rules

import (
	"math"
	"strings"
)

type FertilizerConditions struct {
	Crop     string
	N        float64
	P        float64
	K        float64
	PH       float64
	SoilType string
}

// FertilizerAdvice is a table recommendation. Needed is the nutrient
// shortfall against the crop's target.
type FertilizerAdvice struct {
	Fertilizer string
	Needed     NPK
	Quantity   float64
	Timing     string
	Notes      string
}

const (
	acidicNote    = " Soil is acidic - consider lime application before fertilizer."
	alkalineNote  = " Soil is alkaline - use acidic fertilizers. Consider sulfur application."
	claySoilNote  = " Clay soil retains nutrients well - split applications recommended."
	lightSoilNote = " Sandy/Laterite soil - apply in smaller, frequent doses to prevent leaching."
)

type FertilizerRecommender struct{}

func (FertilizerRecommender) Recommend(c FertilizerConditions) (FertilizerAdvice, error) {
	plan, ok := FertilizerPlans[c.Crop]
	if !ok {
		return FertilizerAdvice{}, unsupported("fertilizer", c.Crop)
	}
	needed := NPK{
		N: math.Max(0, plan.Target.N-c.N),
		P: math.Max(0, plan.Target.P-c.P),
		K: math.Max(0, plan.Target.K-c.K),
	}
	fertilizer, phNote := adjustForPH(plan.Fertilizer, c.PH)

	quantity := plan.Quantity
	if total := plan.Target.Sum(); total > 0 {
		quantity = math.Round(plan.Quantity * needed.Sum() / total)
	}

	var soilNote string
	switch {
	case strings.Contains(c.SoilType, "Clay"):
		soilNote = claySoilNote
	case strings.Contains(c.SoilType, "Sandy"), strings.Contains(c.SoilType, "Laterite"):
		soilNote = lightSoilNote
	}

	return FertilizerAdvice{
		Fertilizer: fertilizer,
		Needed:     needed,
		Quantity:   quantity,
		Timing:     plan.Timing,
		Notes:      plan.Notes + phNote + soilNote,
	}, nil
}

func adjustForPH(fertilizer string, ph float64) (string, string) {
	switch {
	case ph < 6.0:
		return fertilizer, acidicNote
	case ph > 8.0:
		return strings.ReplaceAll(fertilizer, "Urea", "Ammonium Sulfate"), alkalineNote
	default:
		return fertilizer, ""
	}
}
