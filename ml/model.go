package ml

// ModelType identifies the serialized model family of an artifact.
type ModelType string

const (
	ForestClassifier ModelType = "random_forest_classifier"
	ForestRegressor  ModelType = "random_forest_regressor"
	TreeClassifier   ModelType = "decision_tree_classifier"
	TreeRegressor    ModelType = "decision_tree_regressor"
)

// Model is a trained tabular model as loaded from disk.
type Model interface {
	Type() ModelType
	NumFeatures() int
}

// Classifier returns a probability for every class, position-aligned to Classes.
type Classifier interface {
	Model
	Classes() []string
	PredictProba(features []float64) ([]float64, error)
}

// Regressor predicts a single continuous value.
type Regressor interface {
	Model
	Regress(features []float64) (float64, error)
}

// FeatureVector is position-aligned to an artifact's feature order.
type FeatureVector []float64
