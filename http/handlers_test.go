package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrosmart/ml"
	"agrosmart/monitoring"
	"agrosmart/predict"
	"agrosmart/rules"
)

type fakePredictor struct {
	crop  predict.CropResult
	err   error
	panic bool
	stats *monitoring.Statistics
}

func (f *fakePredictor) PredictCrop(ctx context.Context, in predict.CropInput) (predict.CropResult, error) {
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return predict.CropResult{}, f.err
	}
	f.stats.RecordCrop()
	return f.crop, nil
}

func (f *fakePredictor) RecommendFertilizer(ctx context.Context, in predict.FertilizerInput) (predict.FertilizerResult, error) {
	return predict.FertilizerResult{}, f.err
}

func (f *fakePredictor) EstimateYield(ctx context.Context, in predict.YieldInput) (predict.YieldResult, error) {
	return predict.YieldResult{}, f.err
}

func (f *fakePredictor) Statistics() monitoring.StatisticsSnapshot {
	return f.stats.Snapshot()
}

type fakeModels []ml.KindStatus

func (f fakeModels) Status() []ml.KindStatus { return f }

func newFake() *fakePredictor {
	return &fakePredictor{stats: monitoring.NewStatistics()}
}

func testRouter(p Predictor, cfg ServerConfig) http.Handler {
	return NewRouter(cfg, NewHandler(p, fakeModels{{Kind: ml.KindCrop, Loaded: true}}, nil), nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func riceRequest() map[string]any {
	return map[string]any{
		"soil_type":   "Alluvial Soil",
		"n_level":     100,
		"p_level":     50,
		"k_level":     50,
		"temperature": 25,
		"humidity":    70,
		"rainfall":    150,
		"ph_level":    6.5,
		"region":      "East India",
	}
}

func TestHealthHandler(t *testing.T) {
	h := testRouter(newFake(), DefaultServerConfig())

	w := doJSON(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	resp := decodeBody[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, apiVersion, resp.Version)
	require.Len(t, resp.Models, 1)
	assert.True(t, resp.Models[0].Loaded)
}

func TestRootListsEndpoints(t *testing.T) {
	w := doJSON(t, testRouter(newFake(), DefaultServerConfig()), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/predict-crop")
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := testRouter(newFake(), DefaultServerConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestPredictCropWithRuleFallback(t *testing.T) {
	svc := predict.NewService(ml.NewRegistry(t.TempDir()), predict.WithRuleFallback(func() float64 { return 0.5 }))
	h := testRouter(svc, DefaultServerConfig())

	w := doJSON(t, h, http.MethodPost, "/api/predict-crop", riceRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[CropPredictionResponse](t, w)
	assert.Equal(t, "Rice", resp.PredictedCrop)
	assert.Equal(t, 1.0, resp.ConfidenceScore)
	assert.LessOrEqual(t, len(resp.AlternativeCrops), 3)

	stats := decodeBody[StatisticsResponse](t, doJSON(t, h, http.MethodGet, "/api/statistics", nil))
	assert.Equal(t, int64(1), stats.TotalPredictions)
	assert.Equal(t, int64(1), stats.Crops)
}

func TestFertilizerAndYieldWithRuleFallback(t *testing.T) {
	svc := predict.NewService(ml.NewRegistry(t.TempDir()), predict.WithRuleFallback(func() float64 { return 0.5 }))
	h := testRouter(svc, DefaultServerConfig())

	w := doJSON(t, h, http.MethodPost, "/api/recommend-fertilizer", map[string]any{
		"crop_type": "Rice", "current_n": 50, "current_p": 30, "current_k": 40,
		"soil_ph": 7, "soil_type": "Alluvial Soil",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fert := decodeBody[FertilizerResponse](t, w)
	assert.NotEmpty(t, fert.RecommendedFertilizer)
	assert.Equal(t, 100.0, fert.QuantityPerHectare)

	w = doJSON(t, h, http.MethodPost, "/api/estimate-yield", map[string]any{
		"crop_type": "Rice", "area_hectares": 2, "season": "Kharif",
		"temperature": 27, "humidity": 75, "rainfall": 180,
		"soil_type": "Alluvial Soil", "soil_ph": 6.5,
		"n_level": 100, "p_level": 50, "k_level": 50,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	yield := decodeBody[YieldResponse](t, w)
	assert.GreaterOrEqual(t, yield.EstimatedYield, float64(predict.MinYieldKgPerHa))
	assert.LessOrEqual(t, yield.ConfidenceInterval.Lower, yield.EstimatedYield)
	assert.GreaterOrEqual(t, yield.ConfidenceInterval.Upper, yield.EstimatedYield)
}

func TestValidationErrors(t *testing.T) {
	h := testRouter(newFake(), DefaultServerConfig())

	missing := riceRequest()
	delete(missing, "n_level")
	badSoil := riceRequest()
	badSoil["soil_type"] = "Sand"
	negative := riceRequest()
	negative["rainfall"] = -1

	tests := []struct {
		name   string
		body   any
		detail string
	}{
		{"missing field", missing, "n_level is required"},
		{"bad enum", badSoil, "soil_type must be one of"},
		{"out of range", negative, "rainfall must be greater than or equal to 0"},
		{"invalid json", "{not json", "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/api/predict-crop", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeBody[ErrorResponse](t, w)
			assert.Equal(t, errorTypeValidation, resp.ErrorType)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, resp.Detail, tt.detail)
		})
	}
}

func TestZeroIsAValidLevel(t *testing.T) {
	fake := newFake()
	fake.crop = predict.CropResult{Label: "Wheat", Confidence: 0.4, Alternatives: []predict.Alternative{}}
	body := riceRequest()
	body["n_level"] = 0
	w := doJSON(t, testRouter(fake, DefaultServerConfig()), http.MethodPost, "/api/predict-crop", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"predicted_crop":"Wheat","confidence_score":0.4,"alternative_crops":[]}`, w.Body.String())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errType string
		detail  string
	}{
		{
			name:    "artifact unavailable",
			err:     fmt.Errorf("%w: crop: %w", predict.ErrInference, fmt.Errorf("%w: /secret/path", ml.ErrArtifactLoad)),
			status:  http.StatusInternalServerError,
			errType: errorTypeServer,
			detail:  "Prediction model is unavailable",
		},
		{
			name:    "unsupported domain value",
			err:     fmt.Errorf("%w: crop %q", rules.ErrUnsupportedDomainValue, "Quinoa"),
			status:  http.StatusBadRequest,
			errType: errorTypeValidation,
			detail:  "Quinoa",
		},
		{
			name:    "anything else",
			err:     errors.New("tree 3: leaf index out of range"),
			status:  http.StatusInternalServerError,
			errType: errorTypeServer,
			detail:  internalErrorDetail,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			fake.err = tt.err
			w := doJSON(t, testRouter(fake, DefaultServerConfig()), http.MethodPost, "/api/predict-crop", riceRequest())
			require.Equal(t, tt.status, w.Code)
			resp := decodeBody[ErrorResponse](t, w)
			assert.Equal(t, tt.errType, resp.ErrorType)
			assert.Contains(t, resp.Detail, tt.detail)
			assert.NotContains(t, resp.Detail, "/secret/path")
		})
	}
}

func TestPanicIsRecovered(t *testing.T) {
	fake := newFake()
	fake.panic = true
	w := doJSON(t, testRouter(fake, DefaultServerConfig()), http.MethodPost, "/api/predict-crop", riceRequest())
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, errorTypeServer, resp.ErrorType)
	assert.Equal(t, internalErrorDetail, resp.Detail)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := testRouter(newFake(), DefaultServerConfig())

	w := doJSON(t, h, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errorTypeNotFound, decodeBody[ErrorResponse](t, w).ErrorType)

	w = doJSON(t, h, http.MethodGet, "/api/predict-crop", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, errorTypeMethodNotAllowed, decodeBody[ErrorResponse](t, w).ErrorType)
}

func TestRequestBodyLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxBodyBytes = 16
	w := doJSON(t, testRouter(newFake(), cfg), http.MethodPost, "/api/predict-crop", riceRequest())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RateLimit = 2
	h := testRouter(newFake(), cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/api/health", nil).Code)
	}
	w := doJSON(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, errorTypeRateLimit, resp.ErrorType)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	h := testRouter(newFake(), DefaultServerConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/predict-crop", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/predict-crop", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	w := doJSON(t, testRouter(newFake(), DefaultServerConfig()), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
