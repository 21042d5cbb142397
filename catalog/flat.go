package catalog

// Flat maps dot-joined slugs to message bodies, keeping insertion order.
type Flat struct {
	keys   []string
	values map[string]string
}

// NewFlat returns an empty flat catalog.
func NewFlat() *Flat {
	return &Flat{values: make(map[string]string)}
}

// Set stores value under slug. Replacing an existing slug keeps its position.
func (f *Flat) Set(slug, value string) {
	if _, ok := f.values[slug]; !ok {
		f.keys = append(f.keys, slug)
	}
	f.values[slug] = value
}

// Get returns the body stored under slug.
func (f *Flat) Get(slug string) (string, bool) {
	v, ok := f.values[slug]
	return v, ok
}

// Has reports whether slug is present.
func (f *Flat) Has(slug string) bool {
	_, ok := f.values[slug]
	return ok
}

// Keys returns the slugs in insertion order.
func (f *Flat) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of slugs.
func (f *Flat) Len() int {
	return len(f.keys)
}

// Map returns a copy of the catalog as a plain map.
func (f *Flat) Map() map[string]string {
	m := make(map[string]string, len(f.values))
	for k, v := range f.values {
		m[k] = v
	}
	return m
}

// Equal reports whether both catalogs hold the same slug/body pairs.
func (f *Flat) Equal(other *Flat) bool {
	if f.Len() != other.Len() {
		return false
	}
	for k, v := range f.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Missing returns the slugs of f that other does not contain, in f's order.
func (f *Flat) Missing(other *Flat) []string {
	var out []string
	for _, k := range f.keys {
		if !other.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
