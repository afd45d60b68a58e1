package engine

import (
	"math/rand/v2"

	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

// reseedableSource lets every consumer keep one RandSource reference while
// the processor swaps the generator underneath on Seed.
type reseedableSource struct {
	src domain.RandSource
}

func newReseedableSource(seed uint64) *reseedableSource {
	s := &reseedableSource{}
	s.seed(seed)
	return s
}

func (s *reseedableSource) IntN(n int) int {
	return s.src.IntN(n)
}

func (s *reseedableSource) seed(seed uint64) {
	s.src = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
