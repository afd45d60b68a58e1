package sampler

import "github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"

// Random draws uniformly and independently on every call.
type Random struct {
	rng domain.RandSource
}

// NewRandom creates a stateless sampler drawing from rng.
func NewRandom(rng domain.RandSource) *Random {
	return &Random{rng: rng}
}

func (r *Random) Sample(options []string) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	return options[r.rng.IntN(len(options))], true
}
