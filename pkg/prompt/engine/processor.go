package engine

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"github.com/fpt/go-wildprompt-cli/pkg/logger"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/sampler"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/variant"
)

// wildcardPattern matches __name__ and __<prefix>name__. Names are runs of
// non-underscore, non-space characters joined by single underscores.
var wildcardPattern = regexp.MustCompile(`__([~@&])?([^_\s]+(?:_[^_\s]+)*)__`)

// Processor expands templates: one wildcard pass, then one variant pass.
//
// Sampler cursors belong to the Processor instance and live as long as it
// does. All expansion is serialized, so one Processor can be shared between
// goroutines; use separate instances for independent cursor state.
type Processor struct {
	mu sync.Mutex

	source        *reseedableSource
	random        domain.Sampler
	cyclical      *sampler.Cyclical
	combinatorial *sampler.Combinatorial
	defaultKind   domain.SamplerKind

	resolver domain.WildcardResolver
	expander *variant.Expander
	logger   *logger.Logger
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithRand replaces the random source used by the Random sampler and by
// count groups. A later Seed call replaces it again.
func WithRand(src domain.RandSource) Option {
	return func(p *Processor) { p.source.src = src }
}

// WithRandomSampler swaps the sampler behind the ~ prefix (and the default,
// when the default is random).
func WithRandomSampler(s domain.Sampler) Option {
	return func(p *Processor) { p.random = s }
}

// WithDefaultSampler selects the sampler for unprefixed groups and tokens.
func WithDefaultSampler(kind domain.SamplerKind) Option {
	return func(p *Processor) { p.defaultKind = kind }
}

// WithLogger sets the logger for expansion diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor creates a Processor resolving wildcards through resolver.
// A nil resolver treats every wildcard as unknown.
func NewProcessor(resolver domain.WildcardResolver, opts ...Option) *Processor {
	if resolver == nil {
		resolver = domain.MapResolver(nil)
	}
	p := &Processor{
		source:        newReseedableSource(rand.Uint64()),
		cyclical:      sampler.NewCyclical(),
		combinatorial: sampler.NewCombinatorial(),
		defaultKind:   domain.SamplerRandom,
		resolver:      resolver,
		logger:        logger.NewDiscardLogger(),
	}
	p.random = sampler.NewRandom(p.source)
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("processor")
	p.expander = variant.NewExpander(lockedSamplers{p}, p.source, p.logger)
	return p
}

// Expand resolves wildcards, then variant groups. It never fails: unknown
// wildcards and malformed groups stay in the output as written.
func (p *Processor) Expand(text string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expander.Expand(p.expandWildcards(text))
}

// ExpandWildcards runs only the wildcard pass.
func (p *Processor) ExpandWildcards(text string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expandWildcards(text)
}

// ExpandVariants runs only the variant pass.
func (p *Processor) ExpandVariants(text string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expander.Expand(text)
}

// SetDefaultSampler changes the sampler used by later unprefixed groups and tokens.
func (p *Processor) SetDefaultSampler(kind domain.SamplerKind) error {
	switch kind {
	case domain.SamplerRandom, domain.SamplerCyclical, domain.SamplerCombinatorial:
	default:
		return fmt.Errorf("unknown sampler kind %q", kind)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultKind = kind
	return nil
}

// DefaultSampler returns the current default sampler kind.
func (p *Processor) DefaultSampler() domain.SamplerKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaultKind
}

// Seed makes subsequent random draws reproducible. Stateful sampler cursors
// are not touched.
func (p *Processor) Seed(seed uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source.seed(seed)
}

// Reseed draws a fresh seed, applies it and returns it.
func (p *Processor) Reseed() uint64 {
	seed := rand.Uint64()
	p.Seed(seed)
	return seed
}

// WildcardRemaining reports how many options of a wildcard the
// combinatorial sampler has not handed out yet. Unknown wildcards report
// false.
func (p *Processor) WildcardRemaining(name string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	options, ok := p.resolver.Resolve(name)
	if !ok || len(options) == 0 {
		return 0, false
	}
	return p.combinatorial.Remaining(options), true
}

// lockedSamplers hands the expander the Processor's samplers. It is only
// used from inside Expand and ExpandVariants, which hold p.mu.
type lockedSamplers struct{ p *Processor }

func (l lockedSamplers) SamplerFor(prefix byte) domain.Sampler {
	return l.p.samplerFor(prefix)
}

// samplerFor returns the sampler selected by a template prefix; any
// non-prefix byte selects the default. Callers must hold p.mu.
func (p *Processor) samplerFor(prefix byte) domain.Sampler {
	kind, ok := domain.KindForPrefix(prefix)
	if !ok {
		kind = p.defaultKind
	}
	switch kind {
	case domain.SamplerCyclical:
		return p.cyclical
	case domain.SamplerCombinatorial:
		return p.combinatorial
	default:
		return p.random
	}
}

// expandWildcards substitutes every token in a single left-to-right pass.
// Substituted text is never scanned again.
func (p *Processor) expandWildcards(text string) string {
	if !strings.Contains(text, "__") {
		return text
	}
	matches := wildcardPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		var prefix byte
		if m[2] >= 0 {
			prefix = text[m[2]]
		}
		name := text[m[4]:m[5]]

		options, ok := p.resolver.Resolve(name)
		if !ok || len(options) == 0 {
			p.logger.DebugWithIntention(logger.IntentionWildcard, "Wildcard not found, leaving token", "name", name)
			b.WriteString(text[m[0]:m[1]])
			continue
		}

		choice, ok := p.samplerFor(prefix).Sample(options)
		if !ok {
			p.logger.DebugWithIntention(logger.IntentionExpand, "Sampler exhausted, using first option",
				"wildcard", name, "fallback", options[0])
			choice = options[0]
		}
		b.WriteString(choice)
	}
	b.WriteString(text[last:])
	return b.String()
}
