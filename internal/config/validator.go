package config

import (
	"fmt"
	"strings"
)

const maxBatchLimit = 1000

// Validate checks the config for:
//   - Required fields (version, model and scaler paths, label column)
//   - Positive worker and queue sizes
//   - Batch size within [1, 1000]
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if cfg.Artifacts.Model == "" {
		errs = append(errs, "artifacts.model is required")
	}
	if cfg.Artifacts.Scaler == "" {
		errs = append(errs, "artifacts.scaler is required")
	}
	if cfg.Artifacts.Model != "" && cfg.Artifacts.Model == cfg.Artifacts.Scaler {
		errs = append(errs, fmt.Sprintf("artifacts.model and artifacts.scaler point at the same file %q", cfg.Artifacts.Model))
	}
	if strings.TrimSpace(cfg.Artifacts.LabelColumn) == "" {
		errs = append(errs, "artifacts.label_column must not be blank")
	}
	if cfg.Engine.Workers < 1 {
		errs = append(errs, fmt.Sprintf("engine.workers must be >= 1, got %d", cfg.Engine.Workers))
	}
	if cfg.Engine.QueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must be >= 1, got %d", cfg.Engine.QueueDepth))
	}
	if cfg.Engine.TimeoutMs < 1 {
		errs = append(errs, fmt.Sprintf("engine.timeout_ms must be >= 1, got %d", cfg.Engine.TimeoutMs))
	}
	if cfg.Engine.MaxBatch < 1 || cfg.Engine.MaxBatch > maxBatchLimit {
		errs = append(errs, fmt.Sprintf("engine.max_batch must be in [1, %d], got %d", maxBatchLimit, cfg.Engine.MaxBatch))
	}
	if cfg.Engine.MaxBatch > cfg.Engine.QueueDepth {
		errs = append(errs, fmt.Sprintf("engine.max_batch (%d) exceeds engine.queue_depth (%d)", cfg.Engine.MaxBatch, cfg.Engine.QueueDepth))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
