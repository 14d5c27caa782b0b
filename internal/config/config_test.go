package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
version: v1
artifacts:
  model: model.yaml
  scaler: scaler.yaml
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "isFraud", cfg.Artifacts.LabelColumn)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, 100, cfg.Engine.MaxBatch)
	assert.True(t, cfg.Features.DeriveMerchantEnabled())
	assert.NoError(t, Validate(cfg))
}

func TestParse_YAMLValues(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
server:
  addr: ":9090"
  write_timeout: 2s
  show_debug: true
features:
  derive_merchant: false
engine:
  workers: 2
  timeout_ms: 750
`))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Server.ShowDebug)
	assert.False(t, cfg.Features.DeriveMerchantEnabled())
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 750*time.Millisecond, cfg.Engine.Timeout())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("FRAUD_ARTIFACTS_MODEL", "/models/prod.yaml")
	t.Setenv("FRAUD_SERVER_ADDR", ":7070")
	t.Setenv("FRAUD_ENGINE_QUEUE_DEPTH", "42")
	t.Setenv("FRAUD_FEATURES_DERIVE_MERCHANT", "false")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "/models/prod.yaml", cfg.Artifacts.Model)
	assert.Equal(t, "scaler.yaml", cfg.Artifacts.Scaler, "unset env keeps the YAML value")
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 42, cfg.Engine.QueueDepth)
	assert.False(t, cfg.Features.DeriveMerchantEnabled())
}

func TestParse_BadEnvValue(t *testing.T) {
	t.Setenv("FRAUD_ENGINE_WORKERS", "many")
	_, err := Parse([]byte(minimalYAML))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing version", func(c *Config) { c.Version = "" }, "version is required"},
		{"missing model", func(c *Config) { c.Artifacts.Model = "" }, "artifacts.model is required"},
		{"missing scaler", func(c *Config) { c.Artifacts.Scaler = "" }, "artifacts.scaler is required"},
		{"same file", func(c *Config) { c.Artifacts.Scaler = c.Artifacts.Model }, "same file"},
		{"no workers", func(c *Config) { c.Engine.Workers = 0 }, "engine.workers"},
		{"huge batch", func(c *Config) { c.Engine.MaxBatch = 5000 }, "engine.max_batch"},
		{"batch over queue", func(c *Config) { c.Engine.QueueDepth = 10 }, "exceeds engine.queue_depth"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg, err := Parse([]byte(minimalYAML))
			require.NoError(t, err)
			c.mutate(cfg)
			err = Validate(cfg)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), c.wantErr), "error %q should mention %q", err, c.wantErr)
		})
	}
}

func TestLoader_EnvFileAndReload(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "fraudform.yaml")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("FRAUD_ARTIFACTS_REFERENCE=ref.csv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FRAUD_ARTIFACTS_REFERENCE") })

	l, err := NewLoader(cfgPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, "ref.csv", l.Config().Artifacts.Reference)

	var seen *Config
	l.OnChange(func(c *Config) { seen = c })

	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML+"engine:\n  workers: 3\n"), 0o644))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.Same(t, cfg, seen)
	assert.Same(t, cfg, l.Config())
}

func TestLoader_RefreshDoesNotNotify(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "fraudform.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML), 0o644))
	l, err := NewLoader(cfgPath, "")
	require.NoError(t, err)

	calls := 0
	l.OnChange(func(*Config) { calls++ })

	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML+"engine:\n  workers: 5\n"), 0o644))
	cfg, err := l.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.Workers)
	assert.Same(t, cfg, l.Config())
	assert.Zero(t, calls)
}

func TestLoader_MissingEnvFileIsNotAnError(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "fraudform.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML), 0o644))

	_, err := NewLoader(cfgPath, filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoader_ReloadKeepsOldConfigOnError(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "fraudform.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML), 0o644))
	l, err := NewLoader(cfgPath, "")
	require.NoError(t, err)
	before := l.Config()

	require.NoError(t, os.WriteFile(cfgPath, []byte("version: [\n"), 0o644))
	_, err = l.Reload()
	assert.Error(t, err)
	assert.Same(t, before, l.Config())
}

func TestLoader_WatchPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "fraudform.yaml")
	artifact := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(minimalYAML), 0o644))
	require.NoError(t, os.WriteFile(artifact, []byte("kind: linear_svc\n"), 0o644))

	l, err := NewLoader(cfgPath, "")
	require.NoError(t, err)
	changed := make(chan struct{}, 4)
	l.OnChange(func(*Config) { changed <- struct{}{} })

	stop, err := l.Watch(artifact)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(artifact, []byte("kind: linear_svc\ncoef: [1]\n"), 0o644))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after the artifact changed")
	}
}
