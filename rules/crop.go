package rules

import (
	"math"
	"slices"
	"sort"
)

// CropConditions are the field conditions a crop is scored against.
type CropConditions struct {
	SoilType    string
	N           float64
	P           float64
	K           float64
	Temperature float64
	Humidity    float64
	Rainfall    float64
	PH          float64
	Region      string
}

type ScoredCrop struct {
	Crop  string
	Score float64
}

// CropRecommendation carries scores as fractions in [0, 1].
type CropRecommendation struct {
	Crop         string
	Score        float64
	Alternatives []ScoredCrop
}

const (
	maxAlternatives     = 3
	minAlternativeScore = 0.5
)

type CropPredictor struct {
	jitter Jitter
}

func NewCropPredictor(jitter Jitter) *CropPredictor {
	return &CropPredictor{jitter: jitter}
}

// Suitability scores one crop in percent. Soil match is worth two points,
// each in-range measurement one, and a region match adds one point to both
// score and maximum.
func (cp *CropPredictor) Suitability(crop string, c CropConditions) (float64, error) {
	req, ok := CropRequirements[crop]
	if !ok {
		return 0, unsupported("crop", crop)
	}
	score, maxScore := 0.0, 8.0
	if slices.Contains(req.SoilTypes, c.SoilType) {
		score += 2
	}
	for _, check := range []struct {
		r Range
		v float64
	}{
		{req.N, c.N}, {req.P, c.P}, {req.K, c.K}, {req.PH, c.PH},
		{req.Temp, c.Temperature}, {req.Humidity, c.Humidity}, {req.Rainfall, c.Rainfall},
	} {
		if check.r.Contains(check.v) {
			score++
		}
	}
	if slices.Contains(req.Regions, c.Region) {
		score++
		maxScore++
	}
	pct := score/maxScore*100 + cp.jitter.uniform(-2, 2)
	return math.Max(0, math.Min(100, pct)), nil
}

// Predict scores every crop and returns the best with up to three runners-up
// scoring at least one half.
func (cp *CropPredictor) Predict(c CropConditions) (CropRecommendation, error) {
	scored := make([]ScoredCrop, 0, len(Crops))
	for _, crop := range Crops {
		pct, err := cp.Suitability(crop, c)
		if err != nil {
			return CropRecommendation{}, err
		}
		scored = append(scored, ScoredCrop{Crop: crop, Score: math.Round(pct*10) / 1000})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	rec := CropRecommendation{Crop: scored[0].Crop, Score: scored[0].Score, Alternatives: []ScoredCrop{}}
	for _, alt := range scored[1:min(len(scored), maxAlternatives+1)] {
		if alt.Score > minAlternativeScore {
			rec.Alternatives = append(rec.Alternatives, alt)
		}
	}
	return rec, nil
}
