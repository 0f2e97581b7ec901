package sim

// cloneValue deep-copies the JSON-shaped parts of a payload (objects and
// arrays, as produced by decoding JSON, YAML or TOML). Scalars and other
// types are returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case SharedWrite:
		t.Value = cloneValue(t.Value)
		return t
	case *SharedWrite:
		if t == nil {
			return t
		}
		c := *t
		c.Value = cloneValue(c.Value)
		return &c
	}
	return v
}
