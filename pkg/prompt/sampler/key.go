package sampler

import (
	"strconv"
	"strings"
)

// OptionKey returns the canonical state key for an ordered option list.
// Two lists share a key exactly when they hold the same strings in the same
// order, whatever template they came from. Each option is length-prefixed so
// that no choice of option text can make two different lists collide.
func OptionKey(options []string) string {
	var b strings.Builder
	for _, opt := range options {
		b.WriteString(strconv.Itoa(len(opt)))
		b.WriteByte(':')
		b.WriteString(opt)
	}
	return b.String()
}
