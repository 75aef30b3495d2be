package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agrosmart/ml"
)

type Config struct {
	Dir             string
	Samples         int
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	TestRatio       float64
	Seed            int64
}

func DefaultConfig() Config {
	return Config{
		Dir:             "trained_models",
		Samples:         2000,
		Trees:           25,
		MaxDepth:        12,
		MinSamplesSplit: 4,
		TestRatio:       0.2,
		Seed:            42,
	}
}

// Report summarises one trained kind. Metric is "accuracy" for classifiers
// and "r2" for the yield regressor.
type Report struct {
	Kind   ml.Kind `json:"kind"`
	Train  int     `json:"train_rows"`
	Test   int     `json:"test_rows"`
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

// Dataset synthesizes the training rows for kind.
func (c Config) Dataset(kind ml.Kind) (Dataset, error) {
	rnd := rand.New(rand.NewSource(c.Seed))
	switch kind {
	case ml.KindCrop:
		perCrop := c.Samples / 10
		if perCrop < 2 {
			perCrop = 2
		}
		return CropDataset(rnd, perCrop), nil
	case ml.KindFertilizer:
		return FertilizerDataset(rnd, c.Samples)
	case ml.KindYield:
		return YieldDataset(rnd, c.Samples)
	default:
		return Dataset{}, fmt.Errorf("%w: %q", ml.ErrUnknownKind, kind)
	}
}

// Train fits the scaler and forest for kind and scores them on held-out rows.
func Train(ctx context.Context, kind ml.Kind, cfg Config) (*ml.Artifact, Report, error) {
	ds, err := cfg.Dataset(kind)
	if err != nil {
		return nil, Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}

	rnd := rand.New(rand.NewSource(cfg.Seed + 1))
	trainX, trainY, testX, testY := splitDataset(rnd, ds, cfg.TestRatio)

	scaler := &ml.StandardScaler{}
	if err := scaler.Fit(trainX); err != nil {
		return nil, Report{}, err
	}
	scaledTrain, err := transformAll(scaler, trainX)
	if err != nil {
		return nil, Report{}, err
	}
	scaledTest, err := transformAll(scaler, testX)
	if err != nil {
		return nil, Report{}, err
	}

	forest, err := ml.TrainForest(scaledTrain, trainY, ml.ForestConfig{
		Trees:           cfg.Trees,
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		Labels:          ds.Labels,
		Seed:            cfg.Seed,
	})
	if err != nil {
		return nil, Report{}, fmt.Errorf("train %s: %w", kind, err)
	}

	report := Report{Kind: kind, Train: len(trainX), Test: len(testX)}
	if ds.classifier() {
		report.Metric = "accuracy"
		report.Score, err = accuracy(forest, scaledTest, testY)
	} else {
		report.Metric = "r2"
		report.Score, err = rSquared(forest, scaledTest, testY)
	}
	if err != nil {
		return nil, Report{}, err
	}

	return &ml.Artifact{
		Kind:         kind,
		Model:        forest,
		Features:     ds.Features,
		Scaler:       scaler,
		Encoders:     ds.Encoders,
		TargetColumn: ds.TargetColumn,
	}, report, nil
}

// Bootstrap trains every kind concurrently and writes the artifacts to
// cfg.Dir. Nothing is written unless all kinds train.
func Bootstrap(ctx context.Context, cfg Config, logger *zap.Logger) ([]Report, error) {
	if cfg.Dir == "" {
		return nil, errors.New("output dir is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	kinds := ml.Kinds()
	artifacts := make([]*ml.Artifact, len(kinds))
	reports := make([]Report, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			art, report, err := Train(gctx, kind, cfg)
			if err != nil {
				return err
			}
			artifacts[i], reports[i] = art, report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup
	for i := range artifacts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ml.SaveArtifact(cfg.Dir, artifacts[i]); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("save %s: %w", artifacts[i].Kind, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, r := range reports {
		logger.Info("model artifact trained",
			zap.String("kind", string(r.Kind)),
			zap.String("dir", cfg.Dir),
			zap.Int("train_rows", r.Train),
			zap.Int("test_rows", r.Test),
			zap.String("metric", r.Metric),
			zap.Float64("score", r.Score))
	}
	return reports, nil
}

func transformAll(scaler *ml.StandardScaler, rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		v, err := scaler.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func accuracy(clf ml.Classifier, x [][]float64, y []float64) (float64, error) {
	if len(x) == 0 {
		return 0, nil
	}
	correct := 0
	for i, row := range x {
		proba, err := clf.PredictProba(row)
		if err != nil {
			return 0, err
		}
		best := 0
		for c := range proba {
			if proba[c] > proba[best] {
				best = c
			}
		}
		if best == int(y[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), nil
}

func rSquared(reg ml.Regressor, x [][]float64, y []float64) (float64, error) {
	if len(x) == 0 {
		return 0, nil
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, row := range x {
		pred, err := reg.Regress(row)
		if err != nil {
			return 0, err
		}
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - mean) * (y[i] - mean)
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
