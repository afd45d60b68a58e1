package domain

import (
	"fmt"
	"strings"
)

// SamplerKind names one of the selection policies a template can ask for.
type SamplerKind string

const (
	SamplerRandom        SamplerKind = "random"
	SamplerCyclical      SamplerKind = "cyclical"
	SamplerCombinatorial SamplerKind = "combinatorial"
)

// Template prefixes selecting a sampler for a single group or wildcard token.
const (
	PrefixRandom        = '~'
	PrefixCyclical      = '@'
	PrefixCombinatorial = '&'
)

// Sampler picks one option from an ordered option list.
// ok is false when a stateful sampler has nothing left to give for that list.
type Sampler interface {
	Sample(options []string) (choice string, ok bool)
}

// RandSource is the subset of *rand.Rand (math/rand/v2) the engine draws from.
type RandSource interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// SamplerKinds lists every kind in display order.
func SamplerKinds() []SamplerKind {
	return []SamplerKind{SamplerRandom, SamplerCyclical, SamplerCombinatorial}
}

// ParseSamplerKind accepts a kind name or its template prefix.
func ParseSamplerKind(s string) (SamplerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random", "~":
		return SamplerRandom, nil
	case "cyclical", "cycle", "@":
		return SamplerCyclical, nil
	case "combinatorial", "all", "&":
		return SamplerCombinatorial, nil
	}
	return "", fmt.Errorf("unknown sampler %q (must be random, cyclical or combinatorial)", s)
}

// KindForPrefix maps a template prefix to its sampler kind.
// ok is false for anything that is not a sampler prefix, including 0.
func KindForPrefix(prefix byte) (kind SamplerKind, ok bool) {
	switch prefix {
	case PrefixRandom:
		return SamplerRandom, true
	case PrefixCyclical:
		return SamplerCyclical, true
	case PrefixCombinatorial:
		return SamplerCombinatorial, true
	}
	return "", false
}

// IsSamplerPrefix reports whether c may start a group or wildcard as a sampler prefix.
func IsSamplerPrefix(c byte) bool {
	_, ok := KindForPrefix(c)
	return ok
}
