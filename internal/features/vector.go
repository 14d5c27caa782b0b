package features

// Vector is an ordered name → value mapping. Insertion order is preserved so
// the row can be displayed the way it was built.
type Vector struct {
	names  []string
	values map[string]float64
}

func newVector(n int) *Vector {
	return &Vector{
		names:  make([]string, 0, n),
		values: make(map[string]float64, n),
	}
}

// NewVector builds a vector from parallel name/value pairs. Later duplicates
// overwrite earlier values but keep the original position.
func NewVector(names []string, values []float64) *Vector {
	v := newVector(len(names))
	for i, name := range names {
		var val float64
		if i < len(values) {
			val = values[i]
		}
		v.set(name, val)
	}
	return v
}

func (v *Vector) set(name string, val float64) {
	if _, ok := v.values[name]; !ok {
		v.names = append(v.names, name)
	}
	v.values[name] = val
}

// Get returns the value for name and whether it is present.
func (v *Vector) Get(name string) (float64, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Len returns the number of entries.
func (v *Vector) Len() int { return len(v.names) }

// Names returns a copy of the entry names in insertion order.
func (v *Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Map returns a copy of the entries as a plain map.
func (v *Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}
