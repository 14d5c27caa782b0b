package inference

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidProbability is reported when a classifier yields a probability
// outside [0, 1].
var ErrInvalidProbability = errors.New("probability outside [0, 1]")

// FailureKind classifies why a submission could not be scored.
type FailureKind string

const (
	KindInvalidInput FailureKind = "invalid_input"
	KindInference    FailureKind = "inference"
	KindRejected     FailureKind = "rejected" // not scored: queue full or timed out
)

// Prediction is a successful classification.
type Prediction struct {
	Label       int      `json:"label"`
	Probability *float64 `json:"probability,omitempty"` // nil when the classifier has no probability output
}

// Fraudulent reports whether the positive class was predicted.
func (p *Prediction) Fraudulent() bool { return p.Label == 1 }

// Verdict is the user-facing sentence for the prediction.
func (p *Prediction) Verdict() string {
	var s string
	if p.Fraudulent() {
		s = "Fraudulent transaction detected."
	} else {
		s = "Legitimate transaction."
	}
	if p.Probability != nil {
		s = fmt.Sprintf("%s (Fraud probability: %.2f)", s, *p.Probability)
	}
	return s
}

// Failure explains why no prediction was produced.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
	err    error
}

func (f *Failure) Error() string { return f.Reason }
func (f *Failure) Unwrap() error { return f.err }

// Debug is the column order and aligned row sent to the model.
type Debug struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
	Source  string    `json:"source"`
	Missing []string  `json:"zero_filled,omitempty"`
	Dropped []string  `json:"dropped,omitempty"`
}

// Result is either a Prediction or a Failure, never both.
type Result struct {
	TransactionID string      `json:"transaction_id,omitempty"`
	Prediction    *Prediction `json:"prediction,omitempty"`
	Failure       *Failure    `json:"failure,omitempty"`
	Debug         *Debug      `json:"debug,omitempty"`
	DurationMs    float64     `json:"duration_ms"`

	Duration time.Duration `json:"-"`
}

// OK reports whether the result carries a prediction.
func (r *Result) OK() bool { return r.Prediction != nil && r.Failure == nil }

// Err returns the failure as an error, or nil on success.
func (r *Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Failed builds a failure result for callers outside the pipeline, such as a
// scheduler that could not run the submission at all.
func Failed(txID string, kind FailureKind, err error) *Result {
	return &Result{
		TransactionID: txID,
		Failure:       &Failure{Kind: kind, Reason: err.Error(), err: err},
	}
}

func failure(txID string, kind FailureKind, err error, start time.Time) *Result {
	r := &Result{
		TransactionID: txID,
		Failure:       &Failure{Kind: kind, Reason: err.Error(), err: err},
	}
	return r.timed(start)
}

// timed stamps the elapsed time since start, in fractional milliseconds for
// the JSON view.
func (r *Result) timed(start time.Time) *Result {
	r.Duration = time.Since(start)
	r.DurationMs = float64(r.Duration.Microseconds()) / 1000
	return r
}
