package ml

import "errors"

var (
	// ErrArtifactLoad marks a missing, unreadable or malformed model artifact.
	ErrArtifactLoad = errors.New("artifact load failed")

	// ErrUnresolvedFeature is returned when a feature in the model's order has
	// no input, conversion or default that can produce a value.
	ErrUnresolvedFeature = errors.New("unresolved feature")

	ErrUnknownKind      = errors.New("unknown model kind")
	ErrNotTrained       = errors.New("model not trained")
	ErrFeatureMismatch  = errors.New("feature count mismatch")
	ErrWrongModelFamily = errors.New("unexpected model family")
)
