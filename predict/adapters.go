package predict

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"agrosmart/ml"
	"agrosmart/monitoring"
)

// Feature rules per kind. Features a model was trained on but the service
// cannot observe get the fixed constants below.
var (
	CropFeatureRules = ml.FeatureRules{
		Exact: map[string]ml.Rule{
			"N":           ml.Direct("n"),
			"P":           ml.Direct("p"),
			"K":           ml.Direct("k"),
			"temperature": ml.Direct("temperature"),
			"humidity":    ml.Direct("humidity"),
			"ph":          ml.Direct("ph"),
			"rainfall":    ml.Direct("rainfall"),
		},
	}

	FertilizerFeatureRules = ml.FeatureRules{
		Exact: map[string]ml.Rule{
			"Temperature": ml.Direct("temperature"),
			"Humidity":    ml.Direct("humidity"),
			"Moisture":    ml.Direct("moisture"),
			"Nitrogen":    ml.Direct("n"),
			"Phosphorous": ml.Direct("p"),
			"Potassium":   ml.Direct("k"),
			"Rainfall":    ml.Constant(0),
			"PH":          ml.Constant(7.0),
			"Carbon":      ml.Constant(20),
			"Remark":      ml.Constant(0),
			"Soil":        ml.Categorical("soil_type", "Soil"),
			"Crop":        ml.Categorical("crop_type", "Crop"),
		},
	}

	YieldFeatureRules = ml.FeatureRules{
		Exact: map[string]ml.Rule{
			"Area":                          ml.Direct("area"),
			"Item":                          ml.Categorical("crop_type", "Item"),
			"Year":                          ml.Constant(2025),
			"average_rain_fall_mm_per_year": ml.Converted("rainfall", 10),
			"pesticides_tonnes":             ml.Converted("fertilizer_used", 0.01),
			"avg_temp":                      ml.Direct("temperature"),
		},
		Patterns: []ml.PatternRule{
			{Contains: "Unnamed", Rule: ml.Constant(0)},
		},
	}
)

// adapter holds what every kind shares: the registry it reads artifacts from
// and the rules that align requests to the artifact's feature order.
type adapter struct {
	kind     ml.Kind
	registry *ml.Registry
	rules    ml.FeatureRules
	logger   *zap.Logger
}

// prepare fetches the artifact, aligns and scales the inputs.
func (a *adapter) prepare(ctx context.Context, inputs ml.Inputs) (*ml.Artifact, ml.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	art, err := a.registry.Artifact(ctx, a.kind)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInference, a.kind, err)
	}
	aligned, err := ml.Align(inputs, art.Features, a.rules, art.Encoders)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInference, a.kind, err)
	}
	for _, feature := range aligned.Fallbacks {
		monitoring.UnknownCategoryTotal.WithLabelValues(string(a.kind), feature).Inc()
		a.logger.Debug("unseen category encoded as sentinel",
			zap.String("kind", string(a.kind)),
			zap.String("feature", feature))
	}
	vector, err := art.Prepare(aligned.Vector)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInference, a.kind, err)
	}
	return art, vector, nil
}

func (a *adapter) classify(ctx context.Context, inputs ml.Inputs) (CropResult, error) {
	art, vector, err := a.prepare(ctx, inputs)
	if err != nil {
		return CropResult{}, err
	}
	clf, err := art.Classifier()
	if err != nil {
		return CropResult{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	proba, err := clf.PredictProba(vector)
	if err != nil {
		return CropResult{}, fmt.Errorf("%w: %s: %w", ErrInference, a.kind, err)
	}
	return shapeClassification(proba, clf.Classes())
}

// CropAdapter runs the crop classifier.
type CropAdapter struct {
	adapter
}

// NewCropAdapter binds the crop kind of registry. A nil logger is a no-op.
func NewCropAdapter(registry *ml.Registry, logger *zap.Logger) *CropAdapter {
	return &CropAdapter{adapter{kind: ml.KindCrop, registry: registry, rules: CropFeatureRules, logger: nopIfNil(logger)}}
}

// Predict ignores soil type and region; the crop model was not trained on them.
func (c *CropAdapter) Predict(ctx context.Context, in CropInput) (CropResult, error) {
	return c.classify(ctx, ml.Inputs{
		Numeric: map[string]float64{
			"n":           in.N,
			"p":           in.P,
			"k":           in.K,
			"temperature": in.Temperature,
			"humidity":    in.Humidity,
			"ph":          in.PH,
			"rainfall":    in.Rainfall,
		},
	})
}

// FertilizerAdapter runs the fertilizer classifier.
type FertilizerAdapter struct {
	adapter
}

// NewFertilizerAdapter binds the fertilizer kind of registry.
func NewFertilizerAdapter(registry *ml.Registry, logger *zap.Logger) *FertilizerAdapter {
	return &FertilizerAdapter{adapter{kind: ml.KindFertilizer, registry: registry, rules: FertilizerFeatureRules, logger: nopIfNil(logger)}}
}

// Predict encodes soil and crop type; unseen values become the sentinel code.
func (f *FertilizerAdapter) Predict(ctx context.Context, in FertilizerInput) (FertilizerResult, error) {
	cls, err := f.classify(ctx, ml.Inputs{
		Numeric: map[string]float64{
			"temperature": in.Temperature,
			"humidity":    in.Humidity,
			"moisture":    in.Moisture,
			"n":           in.N,
			"p":           in.P,
			"k":           in.K,
		},
		Categorical: map[string]string{
			"soil_type": in.SoilType,
			"crop_type": in.CropType,
		},
	})
	if err != nil {
		return FertilizerResult{}, err
	}
	return shapeFertilizer(cls.Label, cls.Confidence, in), nil
}

// YieldAdapter runs the yield regressor.
type YieldAdapter struct {
	adapter
}

// NewYieldAdapter binds the yield kind of registry.
func NewYieldAdapter(registry *ml.Registry, logger *zap.Logger) *YieldAdapter {
	return &YieldAdapter{adapter{kind: ml.KindYield, registry: registry, rules: YieldFeatureRules, logger: nopIfNil(logger)}}
}

// Predict feeds area_hectares to the model's Area feature as-is.
func (y *YieldAdapter) Predict(ctx context.Context, in YieldInput) (YieldResult, error) {
	art, vector, err := y.prepare(ctx, ml.Inputs{
		Numeric: map[string]float64{
			"area":            in.AreaHectares,
			"rainfall":        in.Rainfall,
			"fertilizer_used": in.FertilizerUsed(),
			"temperature":     in.Temperature,
		},
		Categorical: map[string]string{
			"crop_type": in.CropType,
		},
	})
	if err != nil {
		return YieldResult{}, err
	}
	reg, err := art.Regressor()
	if err != nil {
		return YieldResult{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	raw, err := reg.Regress(vector)
	if err != nil {
		return YieldResult{}, fmt.Errorf("%w: %s: %w", ErrInference, y.kind, err)
	}
	return shapeYield(YieldFromModel(raw)), nil
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
