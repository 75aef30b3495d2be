package ml

import (
	"errors"
	"fmt"
	"math/rand"
)

// Forest is an ensemble of trees. Classifier probabilities are the mean of the
// normalised leaf distributions; regressor output is the mean of leaf values.
type Forest struct {
	ModelType ModelType      `json:"type"`
	Features  int            `json:"n_features"`
	Labels    []string       `json:"classes,omitempty"`
	Trees     []DecisionTree `json:"trees"`
}

func (f *Forest) Type() ModelType   { return f.ModelType }
func (f *Forest) NumFeatures() int  { return f.Features }
func (f *Forest) Classes() []string { return f.Labels }

func (f *Forest) isClassifier() bool {
	return f.ModelType == ForestClassifier || f.ModelType == TreeClassifier
}

func (f *Forest) PredictProba(features []float64) ([]float64, error) {
	if !f.isClassifier() {
		return nil, fmt.Errorf("%w: %s cannot produce probabilities", ErrWrongModelFamily, f.ModelType)
	}
	if len(features) != f.Features {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), f.Features)
	}
	if len(f.Trees) == 0 {
		return nil, ErrNotTrained
	}
	proba := make([]float64, len(f.Labels))
	for i := range f.Trees {
		leaf, err := f.Trees[i].Leaf(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		total := 0.0
		for _, v := range leaf {
			total += v
		}
		if total <= 0 {
			continue
		}
		for c, v := range leaf {
			proba[c] += v / total
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba, nil
}

func (f *Forest) Regress(features []float64) (float64, error) {
	if f.isClassifier() {
		return 0, fmt.Errorf("%w: %s cannot regress", ErrWrongModelFamily, f.ModelType)
	}
	if len(features) != f.Features {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), f.Features)
	}
	if len(f.Trees) == 0 {
		return 0, ErrNotTrained
	}
	sum := 0.0
	for i := range f.Trees {
		leaf, err := f.Trees[i].Leaf(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += leaf[0]
	}
	return sum / float64(len(f.Trees)), nil
}

// Validate checks the structural shape of a decoded forest.
func (f *Forest) Validate() error {
	switch f.ModelType {
	case ForestClassifier, ForestRegressor, TreeClassifier, TreeRegressor:
	default:
		return fmt.Errorf("unsupported model type %q", f.ModelType)
	}
	if f.Features <= 0 {
		return errors.New("n_features must be positive")
	}
	if len(f.Trees) == 0 {
		return ErrNotTrained
	}
	valueLen := 1
	if f.isClassifier() {
		if len(f.Labels) == 0 {
			return errors.New("classifier has no classes")
		}
		valueLen = len(f.Labels)
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.Features, valueLen); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// ForestConfig controls TrainForest. Labels non-empty trains a classifier whose
// targets are indexes into Labels.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Labels          []string
	Seed            int64
}

// TrainForest fits a bagged ensemble. The same seed yields the same forest.
func TrainForest(features [][]float64, targets []float64, cfg ForestConfig) (*Forest, error) {
	if len(features) == 0 {
		return nil, errors.New("features is empty")
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 10
	}
	rnd := rand.New(rand.NewSource(cfg.Seed))
	forest := &Forest{
		ModelType: ForestRegressor,
		Features:  len(features[0]),
		Trees:     make([]DecisionTree, cfg.Trees),
	}
	if len(cfg.Labels) > 0 {
		forest.ModelType = ForestClassifier
		forest.Labels = append([]string(nil), cfg.Labels...)
	}

	treeCfg := TreeConfig{
		MaxDepth:        cfg.MaxDepth,
		MinSamplesSplit: cfg.MinSamplesSplit,
		NumClasses:      len(cfg.Labels),
		MaxFeatures:     cfg.MaxFeatures,
		Rand:            rnd,
	}
	for t := range forest.Trees {
		sampleX := make([][]float64, len(features))
		sampleY := make([]float64, len(features))
		for i := range sampleX {
			j := rnd.Intn(len(features))
			sampleX[i] = features[j]
			sampleY[i] = targets[j]
		}
		if err := forest.Trees[t].Train(sampleX, sampleY, treeCfg); err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return forest, nil
}
