package http

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"agrosmart/ml"
	"agrosmart/predict"
	"agrosmart/rules"
)

const (
	apiVersion = "1.0.0"

	errorTypeValidation       = "ValidationError"
	errorTypeServer           = "ServerError"
	errorTypeRateLimit        = "RateLimitError"
	errorTypeNotFound         = "NotFoundError"
	errorTypeMethodNotAllowed = "MethodNotAllowedError"
	internalErrorDetail       = "Internal server error occurred"
)

type AlternativeCrop struct {
	Crop  string  `json:"crop"`
	Score float64 `json:"score"`
}

type CropPredictionResponse struct {
	PredictedCrop    string            `json:"predicted_crop"`
	ConfidenceScore  float64           `json:"confidence_score"`
	AlternativeCrops []AlternativeCrop `json:"alternative_crops"`
}

func newCropResponse(res predict.CropResult) CropPredictionResponse {
	out := CropPredictionResponse{
		PredictedCrop:    res.Label,
		ConfidenceScore:  res.Confidence,
		AlternativeCrops: make([]AlternativeCrop, 0, len(res.Alternatives)),
	}
	for _, alt := range res.Alternatives {
		out.AlternativeCrops = append(out.AlternativeCrops, AlternativeCrop{Crop: alt.Label, Score: alt.Score})
	}
	return out
}

type FertilizerResponse struct {
	RecommendedFertilizer string    `json:"recommended_fertilizer"`
	NPKRatio              rules.NPK `json:"npk_ratio"`
	QuantityPerHectare    float64   `json:"quantity_per_hectare"`
	ApplicationTiming     string    `json:"application_timing"`
	Notes                 string    `json:"notes"`
}

func newFertilizerResponse(res predict.FertilizerResult) FertilizerResponse {
	return FertilizerResponse{
		RecommendedFertilizer: res.Name,
		NPKRatio:              res.NPK,
		QuantityPerHectare:    res.ApplicationRate,
		ApplicationTiming:     res.Timing,
		Notes:                 res.Notes,
	}
}

type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type YieldResponse struct {
	EstimatedYield     float64            `json:"estimated_yield"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	RegionalAverage    float64            `json:"regional_average"`
	OptimalYield       float64            `json:"optimal_yield"`
}

func newYieldResponse(res predict.YieldResult) YieldResponse {
	return YieldResponse{
		EstimatedYield:     res.EstimatedKgPerHa,
		ConfidenceInterval: ConfidenceInterval{Lower: res.Lower, Upper: res.Upper},
		RegionalAverage:    res.RegionalAverage,
		OptimalYield:       res.Optimal,
	}
}

type HealthResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Version string          `json:"version"`
	Models  []ml.KindStatus `json:"models"`
}

type StatisticsResponse struct {
	TotalPredictions int64     `json:"total_predictions"`
	Crops            int64     `json:"crops"`
	Fertilizers      int64     `json:"fertilizers"`
	Yields           int64     `json:"yields"`
	Since            time.Time `json:"since"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
	ErrorType  string `json:"error_type,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, errorType, detail string) {
	respondJSON(w, status, ErrorResponse{Detail: detail, StatusCode: status, ErrorType: errorType})
}
