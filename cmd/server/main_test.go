package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/fraudform/internal/config"
	"github.com/gyaneshwarpardhi/fraudform/internal/engine"
	"github.com/gyaneshwarpardhi/fraudform/internal/inference"
)

func testConfig(t *testing.T, model string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
version: v1
artifacts:
  model: ` + model + `
  scaler: ../../artifacts/scaler.yaml
  reference: ../../artifacts/processed_fraud_data.csv
`))
	require.NoError(t, err)
	return cfg
}

func newTestReloader(t *testing.T) *reloader {
	t.Helper()
	cfg := testConfig(t, "../../artifacts/final_model.yaml")
	p, err := inference.Load(paths(cfg), options(cfg))
	require.NoError(t, err)
	eng := engine.New(context.Background(), p, cfg.Engine)
	t.Cleanup(eng.Shutdown)
	return &reloader{eng: eng}
}

func TestReloader_Apply(t *testing.T) {
	rl := newTestReloader(t)
	before := rl.eng.Predictor()

	err := rl.apply(testConfig(t, "../../artifacts/missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model")
	assert.Same(t, before, rl.eng.Predictor(), "failed reload keeps the previous predictor")

	require.NoError(t, rl.apply(testConfig(t, "../../artifacts/final_model.yaml")))
	assert.NotSame(t, before, rl.eng.Predictor())
}

func TestReloader_EachCallerSeesItsOwnOutcome(t *testing.T) {
	rl := newTestReloader(t)
	good := testConfig(t, "../../artifacts/final_model.yaml")
	bad := testConfig(t, "../../artifacts/missing.yaml")

	const rounds = 20
	var wg sync.WaitGroup
	goodErrs := make([]error, rounds)
	badErrs := make([]error, rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func(i int) { defer wg.Done(); goodErrs[i] = rl.apply(good) }(i)
		go func(i int) { defer wg.Done(); badErrs[i] = rl.apply(bad) }(i)
	}
	wg.Wait()

	for i := 0; i < rounds; i++ {
		assert.NoError(t, goodErrs[i])
		assert.Error(t, badErrs[i])
	}
}
