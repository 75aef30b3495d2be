package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// Kind names one of the prediction services and the file prefix of its artifact.
type Kind string

const (
	KindCrop       Kind = "crop"
	KindFertilizer Kind = "fertilizer"
	KindYield      Kind = "yield"
)

// Kinds lists every model kind in load order.
func Kinds() []Kind {
	return []Kind{KindCrop, KindFertilizer, KindYield}
}

// ParseKind maps a kind name to its Kind; unknown names wrap ErrUnknownKind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// wantsEncoders reports whether the kind ships encoders and a target column.
func (k Kind) wantsEncoders() bool {
	return k == KindFertilizer || k == KindYield
}

func (k Kind) wantsClassifier() bool {
	return k != KindYield
}

const (
	partModel    = "model"
	partScaler   = "scaler"
	partFeatures = "features"
	partEncoders = "encoders"
	partTarget   = "target_col"
)

// ArtifactPath is the file holding one part of the artifact for kind, e.g.
// "<dir>/yield_features.json".
func ArtifactPath(dir string, kind Kind, part string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", kind, part))
}

// KindForFile maps an artifact file name back to its kind.
func KindForFile(name string) (Kind, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	for _, k := range Kinds() {
		if strings.HasPrefix(base, string(k)+"_") {
			return k, true
		}
	}
	return "", false
}

// Artifact is the immutable bundle a prediction adapter runs against.
type Artifact struct {
	Kind         Kind
	Model        Model
	Features     []string
	Scaler       *StandardScaler
	Encoders     map[string]*LabelEncoder
	TargetColumn string
}

// Classifier returns the model as a Classifier or ErrWrongModelFamily.
func (a *Artifact) Classifier() (Classifier, error) {
	c, ok := a.Model.(Classifier)
	if !ok || (a.Model.Type() != ForestClassifier && a.Model.Type() != TreeClassifier) {
		return nil, fmt.Errorf("%w: %s artifact holds %s", ErrWrongModelFamily, a.Kind, a.Model.Type())
	}
	return c, nil
}

// Regressor returns the model as a Regressor or ErrWrongModelFamily.
func (a *Artifact) Regressor() (Regressor, error) {
	r, ok := a.Model.(Regressor)
	if !ok || (a.Model.Type() != ForestRegressor && a.Model.Type() != TreeRegressor) {
		return nil, fmt.Errorf("%w: %s artifact holds %s", ErrWrongModelFamily, a.Kind, a.Model.Type())
	}
	return r, nil
}

// Prepare scales an aligned vector, or copies it when no scaler was shipped.
func (a *Artifact) Prepare(vector FeatureVector) (FeatureVector, error) {
	if a.Scaler == nil {
		return append(FeatureVector(nil), vector...), nil
	}
	return a.Scaler.Transform(vector)
}

// LoadModel reads a serialized forest or tree from path.
func LoadModel(path string) (Model, error) {
	var forest Forest
	if err := readJSON(path, &forest); err != nil {
		return nil, err
	}
	switch forest.ModelType {
	case ForestClassifier, ForestRegressor, TreeClassifier, TreeRegressor:
		if err := forest.Validate(); err != nil {
			return nil, err
		}
		return &forest, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}

// LoadArtifact reads and shape-checks every file of a kind. All failures wrap
// ErrArtifactLoad.
func LoadArtifact(dir string, kind Kind) (*Artifact, error) {
	fail := func(part string, err error) (*Artifact, error) {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactLoad, ArtifactPath(dir, kind, part), err)
	}

	model, err := LoadModel(ArtifactPath(dir, kind, partModel))
	if err != nil {
		return fail(partModel, err)
	}
	art := &Artifact{Kind: kind, Model: model}

	if err := readJSON(ArtifactPath(dir, kind, partFeatures), &art.Features); err != nil {
		return fail(partFeatures, err)
	}
	if err := checkFeatures(art.Features, model.NumFeatures()); err != nil {
		return fail(partFeatures, err)
	}

	var scaler StandardScaler
	if err := readJSON(ArtifactPath(dir, kind, partScaler), &scaler); err != nil {
		return fail(partScaler, err)
	}
	if len(scaler.Mean) != len(art.Features) || len(scaler.Scale) != len(art.Features) {
		return fail(partScaler, fmt.Errorf("%w: scaler has %d/%d entries for %d features",
			ErrFeatureMismatch, len(scaler.Mean), len(scaler.Scale), len(art.Features)))
	}
	art.Scaler = &scaler

	if kind.wantsEncoders() {
		if err := readJSON(ArtifactPath(dir, kind, partEncoders), &art.Encoders); err != nil {
			return fail(partEncoders, err)
		}
		if err := readJSON(ArtifactPath(dir, kind, partTarget), &art.TargetColumn); err != nil {
			return fail(partTarget, err)
		}
	}

	if kind.wantsClassifier() {
		_, err = art.Classifier()
	} else {
		_, err = art.Regressor()
	}
	if err != nil {
		return fail(partModel, err)
	}
	return art, nil
}

func checkFeatures(features []string, want int) error {
	if len(features) == 0 {
		return errors.New("feature list is empty")
	}
	if len(features) != want {
		return fmt.Errorf("%w: %d names for a model of %d features", ErrFeatureMismatch, len(features), want)
	}
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("duplicate feature %q", f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// SaveArtifact writes every part of art into dir using the same layout
// LoadArtifact reads.
func SaveArtifact(dir string, art *Artifact) error {
	forest, ok := art.Model.(*Forest)
	if !ok {
		return fmt.Errorf("cannot serialize model of type %T", art.Model)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	parts := map[string]any{
		partModel:    forest,
		partFeatures: art.Features,
	}
	if art.Scaler != nil {
		parts[partScaler] = art.Scaler
	} else {
		identity := StandardScaler{Mean: make([]float64, len(art.Features)), Scale: make([]float64, len(art.Features))}
		for i := range identity.Scale {
			identity.Scale[i] = 1
		}
		parts[partScaler] = identity
	}
	if art.Kind.wantsEncoders() {
		encoders := art.Encoders
		if encoders == nil {
			encoders = map[string]*LabelEncoder{}
		}
		parts[partEncoders] = encoders
		parts[partTarget] = art.TargetColumn
	}
	for part, v := range parts {
		payload, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", part, err)
		}
		if err := os.WriteFile(ArtifactPath(dir, art.Kind, part), payload, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, v)
}
