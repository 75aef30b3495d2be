package ml

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher marks loaded kinds stale when their files change on disk.
// Loaded artifacts are never swapped at runtime; a restart picks up new files.
type ArtifactWatcher struct {
	watcher  *fsnotify.Watcher
	registry *Registry
	logger   *zap.Logger

	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewArtifactWatcher watches the registry directory. Call Start to begin
// marking kinds stale on change.
func NewArtifactWatcher(registry *Registry, logger *zap.Logger) (*ArtifactWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(registry.Dir()); err != nil {
		_ = w.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactWatcher{
		watcher:  w,
		registry: registry,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the event loop in the background until ctx is cancelled or
// Close is called.
func (aw *ArtifactWatcher) Start(ctx context.Context) {
	if !aw.started.CompareAndSwap(false, true) {
		return
	}
	go aw.run(ctx)
}

func (aw *ArtifactWatcher) run(ctx context.Context) {
	defer close(aw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			aw.handle(ev)
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}

func (aw *ArtifactWatcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	kind, ok := KindForFile(ev.Name)
	if !ok {
		return
	}
	if aw.registry.MarkStale(kind) {
		aw.logger.Warn("model artifact changed on disk; restart to load it",
			zap.String("kind", string(kind)),
			zap.String("file", ev.Name),
			zap.String("op", ev.Op.String()))
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (aw *ArtifactWatcher) Close() error {
	var err error
	aw.stopOnce.Do(func() {
		err = aw.watcher.Close()
		if aw.started.Load() {
			<-aw.done
		}
	})
	return err
}
