package variant

import (
	"strings"

	"github.com/fpt/go-wildprompt-cli/pkg/logger"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

// SamplerSource hands out the sampler for a prefix (0 means "no prefix").
type SamplerSource interface {
	SamplerFor(prefix byte) domain.Sampler
}

// Expander resolves the variant groups of a template.
type Expander struct {
	samplers SamplerSource
	rng      domain.RandSource
	logger   *logger.Logger
}

// NewExpander creates an expander. rng drives count-group subset selection.
func NewExpander(samplers SamplerSource, rng domain.RandSource, log *logger.Logger) *Expander {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &Expander{samplers: samplers, rng: rng, logger: log}
}

// Expand replaces every variant group in text with its selection.
// Every group in the tree is resolved exactly once, innermost first.
func (e *Expander) Expand(text string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return e.render(Parse(text))
}

func (e *Expander) render(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case Literal:
			b.WriteString(string(n))
		case *Group:
			b.WriteString(e.resolve(n))
		}
	}
	return b.String()
}

func (e *Expander) resolve(g *Group) string {
	options := SplitOptions(e.render(g.Content))

	if g.HasCount() {
		lo, hi := ParseCount(g.Count)
		sep := DefaultSeparator
		if g.HasSeparator {
			sep = g.Separator
		}
		return strings.Join(SelectMany(e.rng, options, lo, hi), sep)
	}

	choice, ok := e.samplers.SamplerFor(g.Prefix).Sample(options)
	if !ok {
		e.logger.DebugWithIntention(logger.IntentionExpand, "Sampler exhausted, using first option",
			"options", len(options), "fallback", options[0])
		return options[0]
	}
	return choice
}

// SelectMany draws k options uniformly without replacement, k uniform in
// [lo, hi] and clamped to len(options). The result keeps draw order.
func SelectMany(rng domain.RandSource, options []string, lo, hi int) []string {
	if hi < lo {
		hi = lo
	}
	k := lo
	if span := hi - lo; span > 0 {
		k = lo + rng.IntN(span+1)
	}
	k = min(max(k, 0), len(options))

	pool := append([]string(nil), options...)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
