package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gyaneshwarpardhi/fraudform/internal/features"
)

// DefaultLabelColumn is the target column excluded from the reference header.
const DefaultLabelColumn = "isFraud"

// Source records where a column order came from.
type Source string

const (
	SourceReference Source = "reference"
	SourceFallback  Source = "fallback"
)

// Order is the column layout the model and scaler were fit with.
// It is immutable once constructed.
type Order struct {
	columns []string
	source  Source
	path    string
}

// NewOrder wraps an explicit column list.
func NewOrder(columns []string, source Source) *Order {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Order{columns: cols, source: source}
}

// Fallback returns the hard-coded training column order.
func Fallback() *Order {
	return NewOrder(features.Names, SourceFallback)
}

// Columns returns a copy of the column names.
func (o *Order) Columns() []string {
	out := make([]string, len(o.columns))
	copy(out, o.columns)
	return out
}

// Len returns the number of columns.
func (o *Order) Len() int { return len(o.columns) }

// Source reports whether the order came from a reference file or the fallback.
func (o *Order) Source() Source { return o.source }

// Path is the reference file the order was read from, empty for fallback.
func (o *Order) Path() string { return o.path }

// Discover reads the header row of the CSV file at path and returns its
// columns minus label. Any failure (missing file, unreadable header, empty or
// malformed header) falls back to the hard-coded list and is logged; it is
// never fatal.
func Discover(path, label string) *Order {
	if path == "" {
		return Fallback()
	}
	cols, err := readHeader(path, label)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("reference header not found, using fallback feature order", "path", path)
		} else {
			slog.Warn("reference header unreadable, using fallback feature order", "path", path, "err", err)
		}
		return Fallback()
	}
	o := NewOrder(cols, SourceReference)
	o.path = path
	return o
}

func readHeader(path, label string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("reference %s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reference %s: read header: %w", path, err)
	}

	seen := make(map[string]struct{}, len(header))
	cols := make([]string, 0, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == label {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("reference %s: blank column name at position %d", path, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("reference %s: duplicate column %q", path, name)
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("reference %s: no feature columns in header", path)
	}
	return cols, nil
}
