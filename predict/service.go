package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"agrosmart/ml"
	"agrosmart/monitoring"
	"agrosmart/rules"
)

// Service is the entry point used by the HTTP and CLI layers. It runs the
// model adapters, falls back to the rule tables when a kind's artifact cannot
// be loaded and fallback is enabled, caches model results and records
// statistics.
type Service struct {
	crop       *CropAdapter
	fertilizer *FertilizerAdapter
	yield      *YieldAdapter

	fallback   bool
	cropRules  *rules.CropPredictor
	fertRules  rules.FertilizerRecommender
	yieldRules *rules.YieldEstimator
	cropCache  *lru.Cache[CropInput, CropResult]
	fertCache  *lru.Cache[FertilizerInput, FertilizerResult]
	yieldCache *lru.Cache[YieldInput, YieldResult]
	stats      *monitoring.Statistics
	logger     *zap.Logger
}

type ServiceOption func(*Service)

// WithRuleFallback serves from the rule tables when an artifact is unavailable.
// jitter may be nil.
func WithRuleFallback(jitter rules.Jitter) ServiceOption {
	return func(s *Service) {
		s.fallback = true
		s.cropRules = rules.NewCropPredictor(jitter)
		s.yieldRules = rules.NewYieldEstimator(jitter)
	}
}

// WithCache keeps up to size model results per kind. Rule results are never
// cached since they carry random jitter.
func WithCache(size int) ServiceOption {
	return func(s *Service) {
		if size <= 0 {
			return
		}
		s.cropCache, _ = lru.New[CropInput, CropResult](size)
		s.fertCache, _ = lru.New[FertilizerInput, FertilizerResult](size)
		s.yieldCache, _ = lru.New[YieldInput, YieldResult](size)
	}
}

func WithStatistics(stats *monitoring.Statistics) ServiceOption {
	return func(s *Service) { s.stats = stats }
}

func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService builds a service over registry. Without WithRuleFallback a
// missing artifact is an error.
func NewService(registry *ml.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		stats:  monitoring.NewStatistics(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.crop = NewCropAdapter(registry, s.logger)
	s.fertilizer = NewFertilizerAdapter(registry, s.logger)
	s.yield = NewYieldAdapter(registry, s.logger)
	return s
}

func (s *Service) Statistics() monitoring.StatisticsSnapshot {
	return s.stats.Snapshot()
}

func (s *Service) PredictCrop(ctx context.Context, in CropInput) (CropResult, error) {
	res, err := run(ctx, s, ml.KindCrop, in, s.cropCache, s.crop.Predict, func(in CropInput) (CropResult, error) {
		rec, err := s.cropRules.Predict(rules.CropConditions{
			SoilType:    in.SoilType,
			N:           in.N,
			P:           in.P,
			K:           in.K,
			Temperature: in.Temperature,
			Humidity:    in.Humidity,
			Rainfall:    in.Rainfall,
			PH:          in.PH,
			Region:      in.Region,
		})
		if err != nil {
			return CropResult{}, err
		}
		out := CropResult{Label: rec.Crop, Confidence: rec.Score, Alternatives: make([]Alternative, 0, len(rec.Alternatives)), Source: SourceRules}
		for _, alt := range rec.Alternatives {
			out.Alternatives = append(out.Alternatives, Alternative{Label: alt.Crop, Score: alt.Score})
		}
		return out, nil
	})
	if err == nil {
		s.stats.RecordCrop()
	}
	return res, err
}

func (s *Service) RecommendFertilizer(ctx context.Context, in FertilizerInput) (FertilizerResult, error) {
	res, err := run(ctx, s, ml.KindFertilizer, in, s.fertCache, s.fertilizer.Predict, func(in FertilizerInput) (FertilizerResult, error) {
		advice, err := s.fertRules.Recommend(rules.FertilizerConditions{
			Crop:     in.CropType,
			N:        in.N,
			P:        in.P,
			K:        in.K,
			PH:       in.PH,
			SoilType: in.SoilType,
		})
		if err != nil {
			return FertilizerResult{}, err
		}
		return FertilizerResult{
			Name:            advice.Fertilizer,
			ApplicationRate: advice.Quantity,
			RateDescription: fmt.Sprintf("%.0f kg/ha", advice.Quantity),
			Confidence:      1,
			NPK:             advice.Needed,
			Timing:          advice.Timing,
			Notes:           advice.Notes,
			Source:          SourceRules,
		}, nil
	})
	if err == nil {
		s.stats.RecordFertilizer()
	}
	return res, err
}

func (s *Service) EstimateYield(ctx context.Context, in YieldInput) (YieldResult, error) {
	res, err := run(ctx, s, ml.KindYield, in, s.yieldCache, s.yield.Predict, func(in YieldInput) (YieldResult, error) {
		est, err := s.yieldRules.Estimate(rules.YieldConditions{
			Crop:        in.CropType,
			Season:      in.Season,
			Region:      in.Region,
			Temperature: in.Temperature,
			Humidity:    in.Humidity,
			Rainfall:    in.Rainfall,
			SoilType:    in.SoilType,
			PH:          in.PH,
			N:           in.N,
			P:           in.P,
			K:           in.K,
		})
		if err != nil {
			return YieldResult{}, err
		}
		return shapeRuleYield(est), nil
	})
	if err == nil {
		s.stats.RecordYield()
	}
	return res, err
}

// run serves one prediction: cache, model adapter, then the rule fallback when
// the artifact could not be loaded.
func run[In comparable, Out any](
	ctx context.Context,
	s *Service,
	kind ml.Kind,
	in In,
	cache *lru.Cache[In, Out],
	model func(context.Context, In) (Out, error),
	fallback func(In) (Out, error),
) (Out, error) {
	start := time.Now()
	defer func() {
		monitoring.PredictionDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	if cache != nil {
		if out, ok := cache.Get(in); ok {
			monitoring.CacheHitsTotal.WithLabelValues(string(kind)).Inc()
			monitoring.PredictionsTotal.WithLabelValues(string(kind), string(SourceModel), "ok").Inc()
			return out, nil
		}
	}

	out, err := model(ctx, in)
	if err == nil {
		if cache != nil {
			cache.Add(in, out)
		}
		monitoring.PredictionsTotal.WithLabelValues(string(kind), string(SourceModel), "ok").Inc()
		return out, nil
	}
	if !s.fallback || !errors.Is(err, ml.ErrArtifactLoad) {
		monitoring.PredictionsTotal.WithLabelValues(string(kind), string(SourceModel), "error").Inc()
		return out, err
	}

	s.logger.Warn("model unavailable, serving from rule tables",
		zap.String("kind", string(kind)),
		zap.Error(err))
	out, err = fallback(in)
	if err != nil {
		monitoring.PredictionsTotal.WithLabelValues(string(kind), string(SourceRules), "error").Inc()
		return out, err
	}
	monitoring.PredictionsTotal.WithLabelValues(string(kind), string(SourceRules), "ok").Inc()
	return out, nil
}
