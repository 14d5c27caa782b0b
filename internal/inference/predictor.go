package inference

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/gyaneshwarpardhi/fraudform/internal/features"
	"github.com/gyaneshwarpardhi/fraudform/internal/model"
	"github.com/gyaneshwarpardhi/fraudform/internal/schema"
	"github.com/gyaneshwarpardhi/fraudform/internal/transaction"
)

// Options tune how a Predictor treats incoming transactions.
type Options struct {
	// DeriveMerchant overrides isMerchant from nameDest when one is given.
	DeriveMerchant bool
}

// Predictor bundles the artifacts loaded at startup. It has no mutable state
// and is safe for concurrent use; replacing artifacts means building a new
// Predictor.
type Predictor struct {
	order      *schema.Order
	scaler     model.Scaler
	classifier model.Classifier
	opts       Options
	loadedAt   time.Time
}

// New assembles a Predictor. Width disagreements between the artifacts and
// the column order are logged but not rejected: they surface as per-request
// failures, the same way a mismatched input row would.
func New(order *schema.Order, scaler model.Scaler, classifier model.Classifier, opts Options) *Predictor {
	p := &Predictor{
		order:      order,
		scaler:     scaler,
		classifier: classifier,
		opts:       opts,
		loadedAt:   time.Now(),
	}
	if w := scaler.Width(); w != 0 && w != order.Len() {
		slog.Warn("scaler width differs from feature order", "scaler", w, "columns", order.Len())
	}
	if w := classifier.Width(); w != order.Len() {
		slog.Warn("classifier width differs from feature order", "classifier", w, "columns", order.Len())
	}
	for _, a := range []model.Info{scaler.Info(), classifier.Info()} {
		if len(a.Features) > 0 && !slices.Equal(a.Features, order.Columns()) {
			slog.Warn("artifact was fit on a different column order", "kind", a.Kind, "order_source", order.Source())
		}
	}
	return p
}

// Order returns the column order used for alignment.
func (p *Predictor) Order() *schema.Order { return p.order }

// HasProbability reports whether results will carry a probability.
func (p *Predictor) HasProbability() bool {
	_, ok := p.classifier.(model.ProbabilityEstimator)
	return ok
}

// LoadedAt is when the Predictor was assembled.
func (p *Predictor) LoadedAt() time.Time { return p.loadedAt }

// Score runs the full pipeline for tx: validate, build features, align and
// predict. Invalid input yields a failure with KindInvalidInput.
func (p *Predictor) Score(tx transaction.Transaction) *Result {
	start := time.Now()
	if p.opts.DeriveMerchant {
		tx.DeriveMerchant()
	}
	if err := tx.Validate(); err != nil {
		return failure(tx.ID, KindInvalidInput, err, start)
	}

	vec := features.Build(tx)
	aligned := schema.Align(vec, p.order)

	res := p.Predict(aligned)
	res.TransactionID = tx.ID
	res.Debug = &Debug{
		Columns: p.order.Columns(),
		Values:  aligned,
		Source:  string(p.order.Source()),
	}
	res.Debug.Missing, res.Debug.Dropped = schema.Diff(vec, p.order)
	return res.timed(start)
}

// Predict scales the aligned row and classifies it. Any error or panic from
// the artifacts is returned as a failure result; it never propagates.
func (p *Predictor) Predict(aligned []float64) (res *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failure("", KindInference, fmt.Errorf("panic during inference: %v", r), start)
		}
	}()

	scaled, err := p.scaler.Transform(aligned)
	if err != nil {
		return failure("", KindInference, fmt.Errorf("scale: %w", err), start)
	}
	label, err := p.classifier.Predict(scaled)
	if err != nil {
		return failure("", KindInference, fmt.Errorf("predict: %w", err), start)
	}

	pred := &Prediction{Label: label}
	if pe, ok := p.classifier.(model.ProbabilityEstimator); ok {
		proba, err := pe.PredictProba(scaled)
		if err != nil {
			return failure("", KindInference, fmt.Errorf("predict proba: %w", err), start)
		}
		if math.IsNaN(proba) || proba < 0 || proba > 1 {
			return failure("", KindInference, fmt.Errorf("%w: %v", ErrInvalidProbability, proba), start)
		}
		pred.Probability = &proba
	}
	return (&Result{Prediction: pred}).timed(start)
}
