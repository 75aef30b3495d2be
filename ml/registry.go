package ml

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agrosmart/monitoring"
)

// LoaderFunc deserializes the artifact of one kind from dir.
type LoaderFunc func(dir string, kind Kind) (*Artifact, error)

// Registry owns the loaded artifacts. Each kind is loaded at most once; after
// that readers get the same immutable snapshot without locking.
type Registry struct {
	dir     string
	logger  *zap.Logger
	loader  LoaderFunc
	entries map[Kind]*entry
}

type entry struct {
	artifact atomic.Pointer[Artifact]
	loadMu   sync.Mutex

	stateMu  sync.RWMutex
	loadedAt time.Time
	lastErr  error
	stale    bool
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*Registry)

// WithLoader replaces LoadArtifact, mostly for tests.
func WithLoader(loader LoaderFunc) RegistryOption {
	return func(r *Registry) { r.loader = loader }
}

// WithLogger sets the logger for load failures and reloads.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry returns an empty registry over dir. Nothing is read until
// EnsureLoaded, Artifact or LoadAll is called.
func NewRegistry(dir string, opts ...RegistryOption) *Registry {
	r := &Registry{
		dir:     dir,
		logger:  zap.NewNop(),
		loader:  LoadArtifact,
		entries: make(map[Kind]*entry, len(Kinds())),
	}
	for _, k := range Kinds() {
		r.entries[k] = &entry{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir is the artifact directory.
func (r *Registry) Dir() string { return r.dir }

// EnsureLoaded loads the artifact for kind on first call and is a no-op after.
// A failed load is not remembered as loaded; the next call tries again.
func (r *Registry) EnsureLoaded(ctx context.Context, kind Kind) error {
	_, err := r.Artifact(ctx, kind)
	return err
}

// Artifact returns the loaded snapshot for kind, loading it if needed.
func (r *Registry) Artifact(ctx context.Context, kind Kind) (*Artifact, error) {
	e, ok := r.entries[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	if art := e.artifact.Load(); art != nil {
		return art, nil
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if art := e.artifact.Load(); art != nil {
		return art, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	art, err := r.loader(r.dir, kind)
	if err == nil && art == nil {
		err = errors.New("loader returned no artifact")
	}
	if err != nil {
		if !errors.Is(err, ErrArtifactLoad) {
			err = errors.Join(ErrArtifactLoad, err)
		}
		e.setState(time.Time{}, err)
		monitoring.ModelLoadsTotal.WithLabelValues(string(kind), "error").Inc()
		r.logger.Error("model artifact load failed", zap.String("kind", string(kind)), zap.String("dir", r.dir), zap.Error(err))
		return nil, err
	}

	e.artifact.Store(art)
	e.setState(time.Now(), nil)
	monitoring.ModelLoadsTotal.WithLabelValues(string(kind), "ok").Inc()
	monitoring.ModelLoaded.WithLabelValues(string(kind)).Set(1)
	r.logger.Info("model artifact loaded",
		zap.String("kind", string(kind)),
		zap.Int("features", len(art.Features)),
		zap.String("model_type", string(art.Model.Type())),
		zap.Duration("took", time.Since(start)))
	return art, nil
}

// LoadAll loads every kind concurrently. Failures are logged and joined into
// the returned error; kinds that loaded stay available. When ctx ends first,
// LoadAll returns ctx.Err() together with the kinds not yet loaded; loads
// already running finish in the background and are published as usual.
func (r *Registry) LoadAll(ctx context.Context) error {
	kinds := Kinds()
	errs := make([]error, len(kinds))
	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			errs[i] = r.EnsureLoaded(ctx, kind)
			return errs[i]
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		// Wait reports only the first failure; errs holds one slot per kind.
		return errors.Join(errs...)
	case <-ctx.Done():
		var pending []string
		for _, kind := range kinds {
			if r.entries[kind].artifact.Load() == nil {
				pending = append(pending, string(kind))
			}
		}
		if len(pending) == 0 {
			return nil
		}
		r.logger.Warn("model loading outlived the startup deadline",
			zap.Strings("kinds", pending),
			zap.Error(ctx.Err()))
		return errors.Join(ctx.Err(), fmt.Errorf("%w: not loaded: %s", ErrArtifactLoad, strings.Join(pending, ", ")))
	}
}

// MarkStale flags a loaded kind whose files changed on disk. The loaded
// snapshot keeps serving; the flag only surfaces in Status.
func (r *Registry) MarkStale(kind Kind) bool {
	e, ok := r.entries[kind]
	if !ok || e.artifact.Load() == nil {
		return false
	}
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	changed := !e.stale
	e.stale = true
	return changed
}

// KindStatus is the load state of one kind as reported by the health endpoint.
type KindStatus struct {
	Kind     Kind      `json:"kind"`
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Stale    bool      `json:"stale"`
	Error    string    `json:"error,omitempty"`
}

// Status reports every kind in Kinds order.
func (r *Registry) Status() []KindStatus {
	out := make([]KindStatus, 0, len(r.entries))
	for _, kind := range Kinds() {
		e := r.entries[kind]
		e.stateMu.RLock()
		st := KindStatus{
			Kind:     kind,
			Loaded:   e.artifact.Load() != nil,
			LoadedAt: e.loadedAt,
			Stale:    e.stale,
		}
		if e.lastErr != nil {
			st.Error = e.lastErr.Error()
		}
		e.stateMu.RUnlock()
		out = append(out, st)
	}
	return out
}

func (e *entry) setState(loadedAt time.Time, err error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.lastErr = err
	if err == nil {
		e.loadedAt = loadedAt
		e.stale = false
	}
}
