package model

import (
	"fmt"
)

// Scaler is a pre-fit linear feature transform.
type Scaler interface {
	// Transform returns a scaled copy of x.
	Transform(x []float64) ([]float64, error)
	// Width is the number of features the scaler was fit on (0 = any).
	Width() int
	Info() Info
}

type scalerDoc struct {
	Info  `yaml:",inline"`
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
	Min   []float64 `yaml:"min"`
}

// LoadScaler reads a scaler artifact from path.
func LoadScaler(path string) (Scaler, error) {
	var doc scalerDoc
	if err := readDoc(path, &doc); err != nil {
		return nil, err
	}
	s, err := newScaler(doc)
	if err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	return s, nil
}

func newScaler(doc scalerDoc) (Scaler, error) {
	switch doc.Kind {
	case "standard":
		return NewStandardScaler(doc.Info, doc.Mean, doc.Scale)
	case "minmax":
		return NewMinMaxScaler(doc.Info, doc.Min, doc.Scale)
	case "identity":
		return &IdentityScaler{info: doc.Info}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, doc.Kind)
	}
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	info  Info
	mean  []float64
	scale []float64
}

// NewStandardScaler validates the parameters. A zero scale entry is treated
// as 1, matching how constant columns are handled at fit time.
func NewStandardScaler(info Info, mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("standard scaler: %w", ErrEmptyArtifact)
	}
	if len(scale) != len(mean) {
		return nil, fmt.Errorf("standard scaler: mean has %d entries, scale has %d", len(mean), len(scale))
	}
	sc := make([]float64, len(scale))
	for i, s := range scale {
		if s == 0 {
			s = 1
		}
		sc[i] = s
	}
	info.Kind = "standard"
	return &StandardScaler{info: info, mean: append([]float64(nil), mean...), scale: sc}, nil
}

func (s *StandardScaler) Width() int { return len(s.mean) }
func (s *StandardScaler) Info() Info { return s.info }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if err := checkWidth("standard scaler", len(s.mean), x); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// MinMaxScaler computes x*scale + min per column, the fitted form of a
// min-max normalisation.
type MinMaxScaler struct {
	info  Info
	min   []float64
	scale []float64
}

func NewMinMaxScaler(info Info, min, scale []float64) (*MinMaxScaler, error) {
	if len(scale) == 0 {
		return nil, fmt.Errorf("minmax scaler: %w", ErrEmptyArtifact)
	}
	if len(min) != len(scale) {
		return nil, fmt.Errorf("minmax scaler: min has %d entries, scale has %d", len(min), len(scale))
	}
	info.Kind = "minmax"
	return &MinMaxScaler{
		info:  info,
		min:   append([]float64(nil), min...),
		scale: append([]float64(nil), scale...),
	}, nil
}

func (s *MinMaxScaler) Width() int { return len(s.scale) }
func (s *MinMaxScaler) Info() Info { return s.info }

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if err := checkWidth("minmax scaler", len(s.scale), x); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.scale[i] + s.min[i]
	}
	return out, nil
}

// IdentityScaler passes rows through unchanged.
type IdentityScaler struct {
	info Info
}

func (s *IdentityScaler) Width() int { return 0 }
func (s *IdentityScaler) Info() Info { return s.info }

func (s *IdentityScaler) Transform(x []float64) ([]float64, error) {
	return append([]float64(nil), x...), nil
}
