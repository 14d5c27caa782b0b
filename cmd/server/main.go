package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/fraudform/internal/api"
	"github.com/gyaneshwarpardhi/fraudform/internal/config"
	"github.com/gyaneshwarpardhi/fraudform/internal/engine"
	"github.com/gyaneshwarpardhi/fraudform/internal/inference"
	"github.com/gyaneshwarpardhi/fraudform/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", "configs/fraudform.yaml", "Path to YAML config")
	envFile := flag.String("env", ".env", "Optional env file with FRAUD_* overrides")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath, *envFile)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Load artifacts (fatal on failure) ─────────────────────────────────────
	predictor, err := inference.Load(paths(cfg), options(cfg))
	if err != nil {
		slog.Error("failed to load artifacts", "err", err)
		os.Exit(1)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, predictor, cfg.Engine)

	// ── Artifact reload ───────────────────────────────────────────────────────
	rl := &reloader{eng: eng}
	loader.OnChange(func(newCfg *config.Config) {
		if err := rl.apply(newCfg); err != nil {
			slog.Warn("artifact reload skipped, keeping previous predictor", "err", err)
		}
	})
	if cfg.Artifacts.Watch {
		stopWatch, err := loader.Watch(cfg.Artifacts.Model, cfg.Artifacts.Scaler, cfg.Artifacts.Reference)
		if err != nil {
			slog.Warn("artifact watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, api.Options{
		ShowDebug: cfg.Server.ShowDebug,
		Reload: func() error {
			newCfg, err := loader.Refresh()
			if err != nil {
				return err
			}
			return rl.apply(newCfg)
		},
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	cancel()
	slog.Info("goodbye")
}

// reloader serialises predictor rebuilds from the file watcher and the
// reload endpoint; each caller gets the outcome of its own rebuild.
type reloader struct {
	mu  sync.Mutex
	eng *engine.Engine
}

func (r *reloader) apply(cfg *config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rebuild(r.eng, cfg)
}

// rebuild loads a fresh predictor for newCfg and swaps it into eng. On any
// error the previous predictor stays in place.
func rebuild(eng *engine.Engine, newCfg *config.Config) error {
	if err := config.Validate(newCfg); err != nil {
		metrics.ArtifactReloads.WithLabelValues("invalid_config").Inc()
		return err
	}
	p, err := inference.Load(paths(newCfg), options(newCfg))
	if err != nil {
		metrics.ArtifactReloads.WithLabelValues("error").Inc()
		return err
	}
	eng.SwapPredictor(p)
	metrics.ArtifactReloads.WithLabelValues("success").Inc()
	slog.Info("predictor reloaded", "columns", p.Order().Len(), "order_source", p.Order().Source())
	return nil
}

func paths(cfg *config.Config) inference.Paths {
	return inference.Paths{
		Model:       cfg.Artifacts.Model,
		Scaler:      cfg.Artifacts.Scaler,
		Reference:   cfg.Artifacts.Reference,
		LabelColumn: cfg.Artifacts.LabelColumn,
	}
}

func options(cfg *config.Config) inference.Options {
	return inference.Options{DeriveMerchant: cfg.Features.DeriveMerchantEnabled()}
}
