package schema

import "github.com/gyaneshwarpardhi/fraudform/internal/features"

// Align projects v onto the order's columns. Columns missing from v become
// 0; entries of v that the order does not name are dropped. It never fails:
// this is lenient alignment, not a validation gate.
func Align(v *features.Vector, o *Order) []float64 {
	out := make([]float64, len(o.columns))
	for i, name := range o.columns {
		if val, ok := v.Get(name); ok {
			out[i] = val
		}
	}
	return out
}

// Diff reports which order columns were zero-filled and which vector entries
// were dropped during alignment. It is used for the debug view only.
func Diff(v *features.Vector, o *Order) (missing, dropped []string) {
	want := make(map[string]struct{}, len(o.columns))
	for _, name := range o.columns {
		want[name] = struct{}{}
		if _, ok := v.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range v.Names() {
		if _, ok := want[name]; !ok {
			dropped = append(dropped, name)
		}
	}
	return missing, dropped
}
