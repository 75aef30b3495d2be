// Package predict turns validated requests into crop, fertilizer and yield
// predictions, running the trained artifacts when they are available and the
// rule tables otherwise.
package predict

import (
	"errors"

	"agrosmart/rules"
)

// ErrInference wraps every failure of the model path: an unavailable artifact,
// a feature that cannot be resolved or a malformed model.
var ErrInference = errors.New("inference failed")

type Source string

const (
	SourceModel Source = "model"
	SourceRules Source = "rules"
)

type CropInput struct {
	SoilType    string
	Region      string
	N           float64
	P           float64
	K           float64
	Temperature float64
	Humidity    float64
	Rainfall    float64
	PH          float64
}

// FertilizerInput carries the request fields. Temperature, humidity and
// moisture are not asked from the user; see DefaultFertilizerClimate.
type FertilizerInput struct {
	SoilType    string
	CropType    string
	N           float64
	P           float64
	K           float64
	PH          float64
	Temperature float64
	Humidity    float64
	Moisture    float64
}

// DefaultFertilizerClimate fills the climate fields the fertilizer form does
// not collect.
func DefaultFertilizerClimate(in FertilizerInput) FertilizerInput {
	in.Temperature = 25
	in.Humidity = 70
	in.Moisture = 50
	return in
}

type YieldInput struct {
	CropType     string
	AreaHectares float64
	Season       string
	Region       string
	Temperature  float64
	Humidity     float64
	Rainfall     float64
	SoilType     string
	PH           float64
	N            float64
	P            float64
	K            float64
}

// FertilizerUsed is the nutrient total the yield model sees as pesticide input.
func (in YieldInput) FertilizerUsed() float64 {
	return in.N + in.P + in.K
}

type Alternative struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// CropResult scores are fractions in [0, 1].
type CropResult struct {
	Label        string        `json:"label"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
	Source       Source        `json:"source"`
}

type FertilizerResult struct {
	Name            string    `json:"name"`
	ApplicationRate float64   `json:"application_rate"`
	RateDescription string    `json:"rate_description"`
	Confidence      float64   `json:"confidence"`
	NPK             rules.NPK `json:"npk"`
	Timing          string    `json:"timing"`
	Notes           string    `json:"notes"`
	Source          Source    `json:"source"`
}

// YieldResult values are in kg/ha.
type YieldResult struct {
	EstimatedKgPerHa float64 `json:"estimated_kg_per_ha"`
	Lower            float64 `json:"lower"`
	Upper            float64 `json:"upper"`
	RegionalAverage  float64 `json:"regional_average"`
	Optimal          float64 `json:"optimal"`
	Source           Source  `json:"source"`
}
