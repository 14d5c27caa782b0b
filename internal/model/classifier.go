package model

import (
	"fmt"
	"math"
)

// Classifier is a pre-fit binary classifier.
type Classifier interface {
	// Predict returns 1 for the positive (fraud) class, 0 otherwise.
	Predict(x []float64) (int, error)
	Width() int
	Info() Info
}

// ProbabilityEstimator is implemented by classifiers that can report the
// probability mass on the positive class.
type ProbabilityEstimator interface {
	PredictProba(x []float64) (float64, error)
}

type classifierDoc struct {
	Info      `yaml:",inline"`
	Coef      []float64 `yaml:"coef"`
	Intercept float64   `yaml:"intercept"`
	Threshold *float64  `yaml:"threshold"`
}

// LoadClassifier reads a classifier artifact from path.
func LoadClassifier(path string) (Classifier, error) {
	var doc classifierDoc
	if err := readDoc(path, &doc); err != nil {
		return nil, err
	}
	c, err := newClassifier(doc)
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", path, err)
	}
	return c, nil
}

func newClassifier(doc classifierDoc) (Classifier, error) {
	switch doc.Kind {
	case "logistic_regression":
		threshold := 0.5
		if doc.Threshold != nil {
			threshold = *doc.Threshold
		}
		return NewLogisticRegression(doc.Info, doc.Coef, doc.Intercept, threshold)
	case "linear_svc":
		return NewLinearSVC(doc.Info, doc.Coef, doc.Intercept)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, doc.Kind)
	}
}

// linear holds the shared w·x + b decision function.
type linear struct {
	info      Info
	coef      []float64
	intercept float64
}

func newLinear(kind string, info Info, coef []float64, intercept float64) (linear, error) {
	if len(coef) == 0 {
		return linear{}, fmt.Errorf("%s: %w", kind, ErrEmptyArtifact)
	}
	for i, w := range coef {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return linear{}, fmt.Errorf("%s: coef[%d] is not finite", kind, i)
		}
	}
	info.Kind = kind
	return linear{info: info, coef: append([]float64(nil), coef...), intercept: intercept}, nil
}

func (l *linear) Width() int { return len(l.coef) }
func (l *linear) Info() Info { return l.info }

func (l *linear) decision(x []float64) (float64, error) {
	if err := checkWidth(l.info.Kind, len(l.coef), x); err != nil {
		return 0, err
	}
	z := l.intercept
	for i, w := range l.coef {
		z += w * x[i]
	}
	return z, nil
}

// LogisticRegression classifies by sigmoid(w·x + b) >= threshold.
type LogisticRegression struct {
	linear
	threshold float64
}

func NewLogisticRegression(info Info, coef []float64, intercept, threshold float64) (*LogisticRegression, error) {
	l, err := newLinear("logistic_regression", info, coef, intercept)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("logistic_regression: threshold %v not in (0, 1)", threshold)
	}
	return &LogisticRegression{linear: l, threshold: threshold}, nil
}

func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	z, err := m.decision(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

func (m *LogisticRegression) Predict(x []float64) (int, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p >= m.threshold {
		return 1, nil
	}
	return 0, nil
}

// LinearSVC classifies by the sign of w·x + b and has no probability output.
type LinearSVC struct {
	linear
}

func NewLinearSVC(info Info, coef []float64, intercept float64) (*LinearSVC, error) {
	l, err := newLinear("linear_svc", info, coef, intercept)
	if err != nil {
		return nil, err
	}
	return &LinearSVC{linear: l}, nil
}

func (m *LinearSVC) Predict(x []float64) (int, error) {
	z, err := m.decision(x)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return 1, nil
	}
	return 0, nil
}

// sigmoid avoids overflow in exp for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
