package rules

import "math"

type YieldConditions struct {
	Crop        string
	Season      string
	Region      string
	Temperature float64
	Humidity    float64
	Rainfall    float64
	SoilType    string
	PH          float64
	N           float64
	P           float64
	K           float64
}

// YieldEstimate values are in t/ha, rounded to one decimal.
type YieldEstimate struct {
	Estimated       float64
	Lower           float64
	Upper           float64
	RegionalAverage float64
	Optimal         float64
}

type YieldEstimator struct {
	jitter Jitter
}

func NewYieldEstimator(jitter Jitter) *YieldEstimator {
	return &YieldEstimator{jitter: jitter}
}

func (ye *YieldEstimator) Estimate(c YieldConditions) (YieldEstimate, error) {
	base, ok := BaseYields[c.Crop]
	if !ok {
		return YieldEstimate{}, unsupported("yield", c.Crop)
	}
	seasonal, ok := SeasonalFactors[c.Season]
	if !ok {
		return YieldEstimate{}, unsupported("season", c.Season)
	}
	climate := ClimateFactor(c.Crop, c.Temperature, c.Humidity, c.Rainfall)
	soil := SoilFactor(c.SoilType, c.PH, c.N, c.P, c.K)

	estimated := round1(base * climate * soil * seasonal * ye.jitter.uniform(0.95, 1.05))

	var margin float64
	switch avg := (climate + soil) / 2; {
	case avg > 1.1:
		margin = estimated * 0.08
	case avg > 0.95:
		margin = estimated * 0.12
	default:
		margin = estimated * 0.18
	}

	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	regional, ok := RegionalFactors[region]
	if !ok {
		regional = defaultRegionalFactor
	}

	return YieldEstimate{
		Estimated:       estimated,
		Lower:           round1(estimated - margin),
		Upper:           round1(estimated + margin),
		RegionalAverage: round1(base * regional * seasonal),
		Optimal:         round1(base * 1.15 * seasonal),
	}, nil
}

// ClimateFactor rewards conditions inside a crop's preferred band. The result
// is clamped to [0.5, 1.2].
func ClimateFactor(crop string, temperature, humidity, rainfall float64) float64 {
	factor := 1.0

	switch crop {
	case "Rice", "Maize", "Sugarcane":
		if temperature >= 22 && temperature <= 30 {
			factor += 0.1
		} else if temperature < 18 || temperature > 35 {
			factor -= 0.2
		}
	case "Wheat", "Chickpea", "Lentil":
		if temperature >= 18 && temperature <= 25 {
			factor += 0.1
		} else if temperature < 12 || temperature > 30 {
			factor -= 0.2
		}
	}

	switch crop {
	case "Rice":
		if humidity > 70 {
			factor += 0.05
		}
	case "Wheat", "Chickpea":
		if humidity >= 50 && humidity <= 70 {
			factor += 0.05
		}
	}

	switch crop {
	case "Rice":
		if rainfall > 100 {
			factor += 0.1
		} else if rainfall < 80 {
			factor -= 0.15
		}
	case "Wheat", "Maize":
		if rainfall >= 60 && rainfall <= 100 {
			factor += 0.1
		} else if rainfall < 40 || rainfall > 150 {
			factor -= 0.1
		}
	}

	return clamp(factor, 0.5, 1.2)
}

// SoilFactor is clamped to [0.6, 1.2].
func SoilFactor(soilType string, ph, n, p, k float64) float64 {
	factor := 1.0
	switch soilType {
	case "Alluvial Soil", "Black Soil":
		factor += 0.1
	case "Laterite Soil", "Red Soil":
		factor += 0.05
	}

	if ph >= 6.0 && ph <= 7.5 {
		factor += 0.05
	} else if ph < 5.5 || ph > 8.5 {
		factor -= 0.1
	}

	adequate := 0
	if n >= 60 {
		adequate++
	}
	if p >= 30 {
		adequate++
	}
	if k >= 40 {
		adequate++
	}
	factor += float64(adequate) / 3 * 0.15

	return clamp(factor, 0.6, 1.2)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
