package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownKind is returned when an artifact names a kind this build
	// cannot evaluate.
	ErrUnknownKind = errors.New("unknown artifact kind")
	// ErrDimension is returned when an input row does not match the width an
	// artifact was fit with.
	ErrDimension = errors.New("dimension mismatch")
	// ErrEmptyArtifact is returned for artifacts carrying no parameters.
	ErrEmptyArtifact = errors.New("artifact has no parameters")
)

// Info is the metadata common to every artifact document.
type Info struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Version  string   `yaml:"version,omitempty" json:"version,omitempty"`
	Features []string `yaml:"features,omitempty" json:"features,omitempty"` // columns seen at fit time, optional
}

// readDoc decodes the YAML (or JSON) document at path into out.
func readDoc(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return nil
}

func checkWidth(what string, want int, x []float64) error {
	if len(x) != want {
		return fmt.Errorf("%s: %w: expected %d features, got %d", what, ErrDimension, want, len(x))
	}
	return nil
}
