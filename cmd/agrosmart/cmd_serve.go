package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agrosmart/config"
	apihttp "agrosmart/http"
	"agrosmart/ml"
	"agrosmart/predict"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP prediction API",
	Long: `Loads the model artifacts from models.dir and serves the prediction API.

Kinds whose artifacts fail to load keep failing with a server error, or are
answered from the rule tables when models.fallback is "rules".`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := openRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Models.Watch {
		watcher, err := ml.NewArtifactWatcher(registry, logger)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.String("dir", registry.Dir()), zap.Error(err))
		} else {
			watcher.Start(ctx)
			defer watcher.Close()
		}
	}

	svc := newService(registry, cfg, logger)
	server := apihttp.NewServer(apihttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, apihttp.NewHandler(svc, registry, logger), logger)

	ln, err := net.Listen("tcp", server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr(), err)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// openRegistry loads every kind up front unless models.lazy is set. Kinds
// that fail stay unloaded and are retried on first use.
func openRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ml.Registry, error) {
	registry := ml.NewRegistry(cfg.Models.Dir, ml.WithLogger(logger))
	if cfg.Models.Lazy {
		return registry, nil
	}
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Models.LoadTimeout)
	defer cancel()
	if err := registry.LoadAll(loadCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		logger.Warn("serving with missing model artifacts",
			zap.String("dir", cfg.Models.Dir),
			zap.String("fallback", cfg.Models.Fallback),
			zap.Error(err))
	}
	return registry, nil
}

func newService(registry *ml.Registry, cfg *config.Config, logger *zap.Logger) *predict.Service {
	opts := []predict.ServiceOption{
		predict.WithCache(cfg.Cache.Size),
		predict.WithServiceLogger(logger),
	}
	if cfg.Models.Fallback == config.FallbackRules {
		opts = append(opts, predict.WithRuleFallback(nil))
	}
	return predict.NewService(registry, opts...)
}
