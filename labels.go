package kioto

// LabelPair is one ordered key/value entry of a Labels dictionary.
type LabelPair struct {
	Key   string
	Value string
}

// Labels is the ordered key->string dictionary attached as a plugin
// attribute (spec.md §3). Order is preserved from the sequence of
// Put.Label calls, which matters for deterministic commit hashing of the
// Labels representation itself. Labels passed in as a map (such as the
// `labels` table of a config file, via LoadByTOML) are attached in Go
// map iteration order, which is not deterministic.
type Labels []LabelPair

// Get returns the first value for key, if present.
func (l Labels) Get(key string) (string, bool) {
	for _, p := range l {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Map renders Labels as a plain map, for callers that don't care about order.
func (l Labels) Map() map[string]string {
	out := make(map[string]string, len(l))
	for _, p := range l {
		out[p.Key] = p.Value
	}
	return out
}

// LabelsFromMap builds a Labels value from a map. Since Go map iteration
// order is randomized, the resulting order (and therefore commit hash) is
// not deterministic across calls; keys are not sorted.
func LabelsFromMap(m map[string]string) Labels {
	out := make(Labels, 0, len(m))
	for k, v := range m {
		out = append(out, LabelPair{Key: k, Value: v})
	}
	return out
}
