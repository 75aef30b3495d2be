// Package rules holds the agronomic lookup tables and the rule-based
// predictors used when no trained model is available for a kind.
package rules

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDomainValue is returned for a crop, season or other domain
// value the tables have no entry for.
var ErrUnsupportedDomainValue = errors.New("unsupported domain value")

func unsupported(what, value string) error {
	return fmt.Errorf("%w: no %s data for %q", ErrUnsupportedDomainValue, what, value)
}

// Range is an inclusive interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

type CropRequirement struct {
	SoilTypes []string
	N         Range
	P         Range
	K         Range
	PH        Range
	Temp      Range
	Humidity  Range
	Rainfall  Range
	Regions   []string
}

var (
	SoilTypes = []string{"Black Soil", "Red Soil", "Laterite Soil", "Alluvial Soil", "Clay Soil"}
	Regions   = []string{"North India", "South India", "East India", "West India", "Central India"}
	Seasons   = []string{"Kharif", "Rabi", "Zaid"}

	// Crops lists the crops every table covers, in scoring order.
	Crops = []string{"Rice", "Wheat", "Maize", "Sugarcane", "Cotton", "Soybean", "Peanut", "Coconut", "Lentil", "Chickpea"}
)

var CropRequirements = map[string]CropRequirement{
	"Rice": {
		SoilTypes: []string{"Alluvial Soil", "Clay Soil"},
		N:         Range{80, 120}, P: Range{40, 60}, K: Range{40, 60},
		PH: Range{5.5, 7.0}, Temp: Range{20, 30}, Humidity: Range{60, 80}, Rainfall: Range{100, 200},
		Regions: []string{"North India", "East India", "South India"},
	},
	"Wheat": {
		SoilTypes: []string{"Alluvial Soil", "Clay Soil", "Black Soil"},
		N:         Range{80, 120}, P: Range{40, 60}, K: Range{40, 60},
		PH: Range{6.0, 7.5}, Temp: Range{12, 25}, Humidity: Range{50, 70}, Rainfall: Range{50, 100},
		Regions: []string{"North India", "Central India"},
	},
	"Maize": {
		SoilTypes: []string{"Alluvial Soil", "Red Soil", "Black Soil"},
		N:         Range{90, 130}, P: Range{50, 80}, K: Range{50, 80},
		PH: Range{5.5, 7.5}, Temp: Range{21, 30}, Humidity: Range{60, 75}, Rainfall: Range{60, 120},
		Regions: []string{"North India", "South India", "Central India"},
	},
	"Sugarcane": {
		SoilTypes: []string{"Black Soil", "Alluvial Soil"},
		N:         Range{100, 150}, P: Range{50, 90}, K: Range{60, 100},
		PH: Range{6.0, 8.0}, Temp: Range{21, 27}, Humidity: Range{70, 90}, Rainfall: Range{150, 250},
		Regions: []string{"South India", "West India"},
	},
	"Cotton": {
		SoilTypes: []string{"Black Soil", "Red Soil"},
		N:         Range{60, 120}, P: Range{30, 60}, K: Range{30, 60},
		PH: Range{6.0, 8.0}, Temp: Range{21, 30}, Humidity: Range{50, 80}, Rainfall: Range{50, 100},
		Regions: []string{"Central India", "South India", "West India"},
	},
	"Soybean": {
		SoilTypes: []string{"Black Soil", "Red Soil", "Alluvial Soil"},
		N:         Range{20, 40}, P: Range{40, 80}, K: Range{30, 70},
		PH: Range{6.0, 7.5}, Temp: Range{20, 30}, Humidity: Range{60, 80}, Rainfall: Range{60, 100},
		Regions: []string{"Central India", "North India"},
	},
	"Peanut": {
		SoilTypes: []string{"Red Soil", "Laterite Soil"},
		N:         Range{20, 40}, P: Range{40, 70}, K: Range{30, 60},
		PH: Range{6.0, 7.0}, Temp: Range{20, 30}, Humidity: Range{50, 70}, Rainfall: Range{50, 100},
		Regions: []string{"South India", "West India"},
	},
	"Coconut": {
		SoilTypes: []string{"Laterite Soil", "Alluvial Soil"},
		N:         Range{50, 100}, P: Range{30, 60}, K: Range{60, 120},
		PH: Range{5.5, 7.0}, Temp: Range{22, 32}, Humidity: Range{70, 90}, Rainfall: Range{150, 250},
		Regions: []string{"South India"},
	},
	"Lentil": {
		SoilTypes: []string{"Clay Soil", "Black Soil"},
		N:         Range{20, 40}, P: Range{30, 60}, K: Range{20, 50},
		PH: Range{6.0, 7.5}, Temp: Range{15, 25}, Humidity: Range{50, 70}, Rainfall: Range{40, 80},
		Regions: []string{"North India", "Central India"},
	},
	"Chickpea": {
		SoilTypes: []string{"Clay Soil", "Black Soil"},
		N:         Range{20, 40}, P: Range{30, 60}, K: Range{20, 50},
		PH: Range{6.0, 8.0}, Temp: Range{20, 30}, Humidity: Range{50, 70}, Rainfall: Range{60, 100},
		Regions: []string{"Central India", "North India"},
	},
}

// NPK is an amount of each primary nutrient in kg/ha.
type NPK struct {
	N float64 `json:"n"`
	P float64 `json:"p"`
	K float64 `json:"k"`
}

func (v NPK) Sum() float64 { return v.N + v.P + v.K }

type FertilizerPlan struct {
	Fertilizer string
	Target     NPK
	Quantity   float64
	Timing     string
	Notes      string
}

var FertilizerPlans = map[string]FertilizerPlan{
	"Rice": {
		Fertilizer: "Urea + DAP", Target: NPK{120, 60, 40}, Quantity: 220,
		Timing: "Two split applications - 50% at planting, 50% at tillering",
		Notes:  "Apply with adequate water. Avoid excess nitrogen in waterlogged conditions.",
	},
	"Wheat": {
		Fertilizer: "Urea + SSP", Target: NPK{100, 50, 50}, Quantity: 200,
		Timing: "Half at sowing, half at tillering stage",
		Notes:  "Ensure proper moisture for nutrient uptake.",
	},
	"Maize": {
		Fertilizer: "DAP + Urea", Target: NPK{110, 70, 60}, Quantity: 240,
		Timing: "Basal + first weeding + second weeding",
		Notes:  "Apply potash only if K level is very low.",
	},
	"Cotton": {
		Fertilizer: "Urea + SSP + MOP", Target: NPK{100, 50, 50}, Quantity: 200,
		Timing: "Split into 3 doses at 30, 60, 90 days",
		Notes:  "Cotton is sensitive to excess nitrogen during flowering.",
	},
	"Sugarcane": {
		Fertilizer: "Urea + DAP + MOP", Target: NPK{150, 75, 75}, Quantity: 300,
		Timing: "4-6 weeks after planting",
		Notes:  "High nutrient requirement. Apply in split doses.",
	},
	"Soybean": {
		Fertilizer: "DAP", Target: NPK{20, 60, 40}, Quantity: 120,
		Timing: "At sowing time",
		Notes:  "Soybean fixes atmospheric nitrogen, reduce N application.",
	},
	"Peanut": {
		Fertilizer: "SSP + MOP", Target: NPK{25, 50, 75}, Quantity: 150,
		Timing: "Basal application at sowing",
		Notes:  "Legume crop - minimal nitrogen required. Focus on P and K.",
	},
	"Coconut": {
		Fertilizer: "Urea + SSP + MOP", Target: NPK{100, 50, 140}, Quantity: 290,
		Timing: "Apply in 3-4 split doses throughout the year",
		Notes:  "High potassium requirement. Apply adequate organic matter.",
	},
	"Lentil": {
		Fertilizer: "DAP", Target: NPK{20, 40, 20}, Quantity: 80,
		Timing: "Basal application at sowing",
		Notes:  "Pulse crop with nitrogen fixation. Minimal fertilizer needed.",
	},
	"Chickpea": {
		Fertilizer: "DAP", Target: NPK{20, 40, 20}, Quantity: 80,
		Timing: "Basal application",
		Notes:  "Legume crop. Use rhizobium culture for better nitrogen fixation.",
	},
}

// BaseYields is the yield potential per crop in t/ha.
var BaseYields = map[string]float64{
	"Rice":      6.0,
	"Wheat":     5.5,
	"Maize":     7.0,
	"Cotton":    2.2,
	"Sugarcane": 70.0,
	"Soybean":   2.8,
	"Peanut":    2.5,
	"Coconut":   80.0,
	"Lentil":    1.5,
	"Chickpea":  2.0,
}

// RegionalFactors scale base yield to the typical regional outcome.
var RegionalFactors = map[string]float64{
	"North India":   0.85,
	"South India":   0.90,
	"East India":    0.82,
	"West India":    0.80,
	"Central India": 0.88,
}

const (
	DefaultRegion         = "Central India"
	defaultRegionalFactor = 0.85
)

var SeasonalFactors = map[string]float64{
	"Kharif": 1.0,
	"Rabi":   0.95,
	"Zaid":   0.85,
}
