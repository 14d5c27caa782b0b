package config

import "time"

// Config is the top-level YAML structure. Every field can be overridden from
// the environment with the FRAUD_ prefix, e.g. FRAUD_ARTIFACTS_MODEL.
type Config struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	Artifacts ArtifactsConf `yaml:"artifacts"`
	Features  FeaturesConf  `yaml:"features"`
	Engine    EngineConf    `yaml:"engine"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShowDebug    bool          `yaml:"show_debug" split_words:"true"` // render the aligned feature table under each verdict
}

// ArtifactsConf locates the pre-trained model, the fitted scaler and the
// reference dataset whose header fixes the column order.
type ArtifactsConf struct {
	Model       string `yaml:"model"`
	Scaler      string `yaml:"scaler"`
	Reference   string `yaml:"reference"` // optional; fallback column order when absent
	LabelColumn string `yaml:"label_column" split_words:"true"`
	Watch       bool   `yaml:"watch"` // reload artifacts when the files change
}

// FeaturesConf tunes feature construction.
type FeaturesConf struct {
	// DeriveMerchant sets isMerchant from nameDest when one is submitted.
	// Defaults to true.
	DeriveMerchant *bool `yaml:"derive_merchant" split_words:"true"`
}

// DeriveMerchantEnabled resolves the DeriveMerchant default.
func (f FeaturesConf) DeriveMerchantEnabled() bool {
	return f.DeriveMerchant == nil || *f.DeriveMerchant
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth" split_words:"true"`
	TimeoutMs  int `yaml:"timeout_ms" split_words:"true"`
	MaxBatch   int `yaml:"max_batch" split_words:"true"`
}

// Timeout returns TimeoutMs as a duration.
func (e EngineConf) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}
