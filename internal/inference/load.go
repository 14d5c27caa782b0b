package inference

import (
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/fraudform/internal/model"
	"github.com/gyaneshwarpardhi/fraudform/internal/schema"
)

// Paths locates the artifacts a Predictor is assembled from.
type Paths struct {
	Model       string
	Scaler      string
	Reference   string // optional CSV whose header fixes the column order
	LabelColumn string
}

// Load reads both artifacts and discovers the column order. Artifact errors
// are returned to the caller (fatal at startup); a bad reference header only
// degrades to the fallback order.
func Load(p Paths, opts Options) (*Predictor, error) {
	classifier, err := model.LoadClassifier(p.Model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	scaler, err := model.LoadScaler(p.Scaler)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}

	label := p.LabelColumn
	if label == "" {
		label = schema.DefaultLabelColumn
	}
	order := schema.Discover(p.Reference, label)

	slog.Info("artifacts loaded",
		"model", classifier.Info().Kind,
		"scaler", scaler.Info().Kind,
		"columns", order.Len(),
		"order_source", order.Source(),
	)
	return New(order, scaler, classifier, opts), nil
}
