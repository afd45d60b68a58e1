package domain

// WildcardResolver supplies the ordered option list for a wildcard name.
// Implementations translate their own failures (missing file, unreadable
// source, empty list) into ok == false; the engine never sees an error.
type WildcardResolver interface {
	Resolve(name string) (options []string, ok bool)
}

// MapResolver is an in-memory WildcardResolver. Empty lists count as missing.
type MapResolver map[string][]string

func (m MapResolver) Resolve(name string) ([]string, bool) {
	options, ok := m[name]
	if !ok || len(options) == 0 {
		return nil, false
	}
	return options, true
}
