package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"agrosmart/predict"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// JSON names clients send.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// CropPredictionRequest soil type and region are validated but only the rule
// tables use them.
type CropPredictionRequest struct {
	SoilType    string   `json:"soil_type" validate:"required,oneof='Black Soil' 'Red Soil' 'Laterite Soil' 'Alluvial Soil' 'Clay Soil'"`
	NLevel      *float64 `json:"n_level" validate:"required,gte=0,lte=200"`
	PLevel      *float64 `json:"p_level" validate:"required,gte=0,lte=100"`
	KLevel      *float64 `json:"k_level" validate:"required,gte=0,lte=200"`
	Temperature *float64 `json:"temperature" validate:"required,gte=-10,lte=60"`
	Humidity    *float64 `json:"humidity" validate:"required,gte=0,lte=100"`
	Rainfall    *float64 `json:"rainfall" validate:"required,gte=0"`
	PHLevel     *float64 `json:"ph_level" validate:"required,gte=0,lte=14"`
	Region      string   `json:"region" validate:"required,oneof='North India' 'South India' 'East India' 'West India' 'Central India'"`
}

func (r *CropPredictionRequest) Input() predict.CropInput {
	return predict.CropInput{
		SoilType:    r.SoilType,
		Region:      r.Region,
		N:           *r.NLevel,
		P:           *r.PLevel,
		K:           *r.KLevel,
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		Rainfall:    *r.Rainfall,
		PH:          *r.PHLevel,
	}
}

type FertilizerRequest struct {
	CropType string   `json:"crop_type" validate:"required,oneof=Rice Wheat Maize Cotton Sugarcane Soybean Peanut Coconut Lentil Chickpea"`
	CurrentN *float64 `json:"current_n" validate:"required,gte=0,lte=200"`
	CurrentP *float64 `json:"current_p" validate:"required,gte=0,lte=100"`
	CurrentK *float64 `json:"current_k" validate:"required,gte=0,lte=200"`
	SoilPH   *float64 `json:"soil_ph" validate:"required,gte=0,lte=14"`
	SoilType string   `json:"soil_type" validate:"required"`
}

// Input fills the climate fields the form does not collect with defaults.
func (r *FertilizerRequest) Input() predict.FertilizerInput {
	return predict.DefaultFertilizerClimate(predict.FertilizerInput{
		SoilType: r.SoilType,
		CropType: r.CropType,
		N:        *r.CurrentN,
		P:        *r.CurrentP,
		K:        *r.CurrentK,
		PH:       *r.SoilPH,
	})
}

// YieldRequest crop_type is free-form; unknown crops encode to the sentinel.
type YieldRequest struct {
	CropType     string   `json:"crop_type" validate:"required"`
	AreaHectares *float64 `json:"area_hectares" validate:"required,gte=0.1"`
	Season       string   `json:"season" validate:"required,oneof=Kharif Rabi Zaid"`
	Temperature  *float64 `json:"temperature" validate:"required,gte=-10,lte=60"`
	Humidity     *float64 `json:"humidity" validate:"required,gte=0,lte=100"`
	Rainfall     *float64 `json:"rainfall" validate:"required,gte=0"`
	SoilType     string   `json:"soil_type" validate:"required"`
	SoilPH       *float64 `json:"soil_ph" validate:"required,gte=0,lte=14"`
	NLevel       *float64 `json:"n_level" validate:"required,gte=0,lte=200"`
	PLevel       *float64 `json:"p_level" validate:"required,gte=0,lte=100"`
	KLevel       *float64 `json:"k_level" validate:"required,gte=0,lte=200"`
}

func (r *YieldRequest) Input() predict.YieldInput {
	return predict.YieldInput{
		CropType:     r.CropType,
		AreaHectares: *r.AreaHectares,
		Season:       r.Season,
		Temperature:  *r.Temperature,
		Humidity:     *r.Humidity,
		Rainfall:     *r.Rainfall,
		SoilType:     r.SoilType,
		PH:           *r.SoilPH,
		N:            *r.NLevel,
		P:            *r.PLevel,
		K:            *r.KLevel,
	}
}

// ValidationError is returned for a request body that is malformed or breaks
// a field constraint. Its message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var fieldMessages = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
}

func validateRequest(req any) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		tmpl, ok := fieldMessages[fe.Tag()]
		if !ok {
			messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			continue
		}
		if fe.Tag() == "required" {
			messages = append(messages, fmt.Sprintf(tmpl, fe.Field()))
			continue
		}
		messages = append(messages, fmt.Sprintf(tmpl, fe.Field(), fe.Param()))
	}
	return &ValidationError{Message: strings.Join(messages, "; ")}
}
