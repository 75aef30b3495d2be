package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"agrosmart/ml"
	"agrosmart/monitoring"
	"agrosmart/predict"
	"agrosmart/rules"
)

// Predictor is the prediction surface the handlers serve.
type Predictor interface {
	PredictCrop(ctx context.Context, in predict.CropInput) (predict.CropResult, error)
	RecommendFertilizer(ctx context.Context, in predict.FertilizerInput) (predict.FertilizerResult, error)
	EstimateYield(ctx context.Context, in predict.YieldInput) (predict.YieldResult, error)
	Statistics() monitoring.StatisticsSnapshot
}

// ModelStatusProvider reports artifact load state for the health endpoint.
type ModelStatusProvider interface {
	Status() []ml.KindStatus
}

// Handler serves the JSON API.
type Handler struct {
	predictor Predictor
	models    ModelStatusProvider
	logger    *zap.Logger
}

// NewHandler builds the API handlers. A nil logger discards output.
func NewHandler(predictor Predictor, models ModelStatusProvider, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{predictor: predictor, models: models, logger: logger}
}

// RegisterHandlers mounts the API routes on r.
func RegisterHandlers(r chi.Router, h *Handler) {
	r.Get("/", h.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/statistics", h.handleStatistics)
		r.Post("/predict-crop", h.handlePredictCrop)
		r.Post("/recommend-fertilizer", h.handleRecommendFertilizer)
		r.Post("/estimate-yield", h.handleEstimateYield)
	})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to AgroSmart API",
		"version": apiVersion,
		"health":  "/api/health",
		"metrics": "/metrics",
		"endpoints": map[string]string{
			"crop_prediction":           "/api/predict-crop",
			"fertilizer_recommendation": "/api/recommend-fertilizer",
			"yield_estimation":          "/api/estimate-yield",
			"statistics":                "/api/statistics",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Message: "AgroSmart API is running successfully",
		Version: apiVersion,
		Models:  []ml.KindStatus{},
	}
	if h.models != nil {
		resp.Models = h.models.Status()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	snap := h.predictor.Statistics()
	respondJSON(w, http.StatusOK, StatisticsResponse{
		TotalPredictions: snap.TotalPredictions,
		Crops:            snap.Crops,
		Fertilizers:      snap.Fertilizers,
		Yields:           snap.Yields,
		Since:            snap.Since,
	})
}

func (h *Handler) handlePredictCrop(w http.ResponseWriter, r *http.Request) {
	var req CropPredictionRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.predictor.PredictCrop(r.Context(), req.Input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCropResponse(res))
}

func (h *Handler) handleRecommendFertilizer(w http.ResponseWriter, r *http.Request) {
	var req FertilizerRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.predictor.RecommendFertilizer(r.Context(), req.Input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newFertilizerResponse(res))
}

func (h *Handler) handleEstimateYield(w http.ResponseWriter, r *http.Request) {
	var req YieldRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.predictor.EstimateYield(r.Context(), req.Input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newYieldResponse(res))
}

func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &ValidationError{Message: "request body too large"}
		}
		return &ValidationError{Message: "invalid JSON body: " + err.Error()}
	}
	return validateRequest(dst)
}

// writeError maps an error to its response. Only validation problems reach
// the client verbatim; everything else is logged and reported generically.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, errorTypeValidation, verr.Message)
	case errors.Is(err, rules.ErrUnsupportedDomainValue):
		respondError(w, http.StatusBadRequest, errorTypeValidation, err.Error())
	case errors.Is(err, ml.ErrArtifactLoad):
		h.logger.Error("prediction model unavailable", append(requestFields(r), zap.Error(err))...)
		respondError(w, http.StatusInternalServerError, errorTypeServer, "Prediction model is unavailable")
	default:
		h.logger.Error("prediction failed", append(requestFields(r), zap.Error(err))...)
		respondError(w, http.StatusInternalServerError, errorTypeServer, internalErrorDetail)
	}
}

func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
	}
	if start := GetStartTime(r.Context()); !start.IsZero() {
		fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	}
	return fields
}
