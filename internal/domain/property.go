package domain

// Property is one record of the catalog. Only id has meaning to this service;
// every other field is carried through unchanged.
type Property map[string]any

// ID returns the property's integer id, or 0 when absent or non-numeric.
// JSON decoding yields float64 for numbers.
func (p Property) ID() int {
	switch v := p["id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Clone returns a shallow copy with room for extra fields, so callers can
// annotate a property without mutating the stored record.
func (p Property) Clone() Property {
	out := make(Property, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}
