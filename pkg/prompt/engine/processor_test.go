package engine

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

type constSampler string

func (c constSampler) Sample([]string) (string, bool) { return string(c), true }

// countingResolver records every lookup.
type countingResolver struct {
	domain.MapResolver
	mu      sync.Mutex
	lookups []string
}

func (r *countingResolver) Resolve(name string) ([]string, bool) {
	r.mu.Lock()
	r.lookups = append(r.lookups, name)
	r.mu.Unlock()
	return r.MapResolver.Resolve(name)
}

func TestExpand_TextWithoutSyntaxIsUnchanged(t *testing.T) {
	p := NewProcessor(domain.MapResolver{"x": {"y"}})
	inputs := []string{
		"",
		"a plain sentence",
		"single_underscore names and | pipes",
		"trailing __",
		"emoji ✨ and $$ dollars",
	}
	for _, in := range inputs {
		if got := p.Expand(in); got != in {
			t.Errorf("Expand(%q) = %q", in, got)
		}
	}
}

func TestExpand_EndToEndWithStubbedRandom(t *testing.T) {
	p := NewProcessor(nil, WithRandomSampler(constSampler("green")))
	if got := p.Expand("A {red|green|blue} day"); got != "A green day" {
		t.Errorf("got %q", got)
	}
	if got := p.Expand("A {~red|green|blue} day"); got != "A green day" {
		t.Errorf("explicit ~ prefix: got %q", got)
	}
}

func TestExpand_SeededIsDeterministic(t *testing.T) {
	resolver := domain.MapResolver{"animal": {"cat", "dog", "owl", "fox"}}
	text := "__animal__ {big|small|tiny} {1-3$$red|green|blue|gold} {a|{b|c}}"

	p := NewProcessor(resolver)
	p.Seed(42)
	first := p.Expand(text)
	p.Seed(42)
	second := p.Expand(text)
	if first != second {
		t.Errorf("same seed produced %q and %q", first, second)
	}

	q := NewProcessor(resolver)
	q.Seed(42)
	if third := q.Expand(text); third != first {
		t.Errorf("fresh processor with same seed produced %q, want %q", third, first)
	}
}

func TestExpand_WildcardPassthrough(t *testing.T) {
	p := NewProcessor(domain.MapResolver{})
	for _, in := range []string{"__missing__", "__@missing__", "x __two_parts__ y"} {
		if got := p.Expand(in); got != in {
			t.Errorf("Expand(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestExpand_WildcardSinglePass(t *testing.T) {
	resolver := &countingResolver{MapResolver: domain.MapResolver{
		"outer": {"__inner__"},
		"inner": {"resolved"},
	}}
	p := NewProcessor(resolver)

	if got := p.Expand("__outer__"); got != "__inner__" {
		t.Errorf("substituted text must not be rescanned, got %q", got)
	}
	if len(resolver.lookups) != 1 || resolver.lookups[0] != "outer" {
		t.Errorf("expected a single lookup of outer, got %v", resolver.lookups)
	}
}

func TestExpand_WildcardValuesMayContainVariants(t *testing.T) {
	p := NewProcessor(domain.MapResolver{"color": {"{red|blue}"}})
	for i := 0; i < 20; i++ {
		got := p.Expand("a __color__ car")
		if got != "a red car" && got != "a blue car" {
			t.Fatalf("got %q", got)
		}
	}
}

func TestExpand_VariantsMayContainWildcards(t *testing.T) {
	p := NewProcessor(domain.MapResolver{"season": {"winter"}}, WithDefaultSampler(domain.SamplerCyclical))
	if got := p.Expand("{__season__|summer}"); got != "winter" {
		t.Errorf("got %q", got)
	}
	if got := p.Expand("{__season__|summer}"); got != "summer" {
		t.Errorf("got %q", got)
	}
}

func TestExpand_WildcardPrefixesAndNames(t *testing.T) {
	p := NewProcessor(domain.MapResolver{
		"hair_color":  {"black", "red", "white"},
		"colors/warm": {"amber"},
	})

	want := []string{"black", "red", "white", "black"}
	for i, w := range want {
		if got := p.Expand("__@hair_color__"); got != w {
			t.Errorf("cyclical call %d: got %q, want %q", i, got, w)
		}
	}

	if got := p.Expand("__colors/warm__"); got != "amber" {
		t.Errorf("slash names resolve as written, got %q", got)
	}

	// Double underscores end the name, so this is hair + literal text.
	if got := p.Expand("__hair__color__"); got != "__hair__color__" {
		t.Errorf("got %q", got)
	}
}

func TestExpand_CombinatorialWildcardFallsBack(t *testing.T) {
	p := NewProcessor(domain.MapResolver{"pair": {"A", "B"}})
	want := []string{"A", "B", "A", "A"}
	for i, w := range want {
		if got := p.Expand("__&pair__"); got != w {
			t.Errorf("call %d: got %q, want %q", i, got, w)
		}
	}
}

func TestWildcardRemaining(t *testing.T) {
	p := NewProcessor(domain.MapResolver{"pair": {"A", "B"}, "empty": {}})

	tests := []struct {
		expand string
		name   string
		want   int
		wantOK bool
	}{
		{"", "pair", 2, true},
		{"__&pair__", "pair", 1, true},
		{"__pair__", "pair", 1, true}, // random default leaves the cursor alone
		{"__&pair__", "pair", 0, true},
		{"__&pair__", "pair", 0, true},
		{"", "empty", 0, false},
		{"", "missing", 0, false},
	}
	for i, tt := range tests {
		if tt.expand != "" {
			p.Expand(tt.expand)
		}
		got, ok := p.WildcardRemaining(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("step %d: WildcardRemaining(%q) = %d, %v, want %d, %v", i, tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExpand_CyclicalGroupExactCover(t *testing.T) {
	p := NewProcessor(nil)
	want := []string{"A", "B", "C", "A"}
	for i, w := range want {
		if got := p.Expand("{@A|B|C}"); got != w {
			t.Errorf("call %d: got %q, want %q", i, got, w)
		}
	}
}

func TestExpand_CombinatorialGroupFallsBack(t *testing.T) {
	p := NewProcessor(nil)
	want := []string{"A", "B", "A"}
	for i, w := range want {
		if got := p.Expand("{&A|B}"); got != w {
			t.Errorf("call %d: got %q, want %q", i, got, w)
		}
	}
}

func TestSetDefaultSampler(t *testing.T) {
	p := NewProcessor(nil, WithRandomSampler(constSampler("rnd")))

	if got := p.Expand("{x|y}"); got != "rnd" {
		t.Fatalf("default should start as random, got %q", got)
	}

	if err := p.SetDefaultSampler(domain.SamplerCyclical); err != nil {
		t.Fatal(err)
	}
	if p.DefaultSampler() != domain.SamplerCyclical {
		t.Errorf("DefaultSampler() = %q", p.DefaultSampler())
	}
	if got := p.Expand("{x|y} {x|y}"); got != "x y" {
		t.Errorf("unprefixed groups should now cycle, got %q", got)
	}
	if got := p.Expand("{~x|y}"); got != "rnd" {
		t.Errorf("explicit prefix wins over default, got %q", got)
	}

	if err := p.SetDefaultSampler("weighted"); err == nil {
		t.Error("unknown kind should be rejected")
	}
	if p.DefaultSampler() != domain.SamplerCyclical {
		t.Error("rejected kind must not change the default")
	}
}

func TestProcessorsDoNotShareCursors(t *testing.T) {
	a, b := NewProcessor(nil), NewProcessor(nil)
	a.Expand("{@1|2}")
	if got := b.Expand("{@1|2}"); got != "1" {
		t.Errorf("independent processor should start at the first option, got %q", got)
	}
}

func TestSeedDoesNotResetCursors(t *testing.T) {
	p := NewProcessor(nil)
	p.Expand("{@1|2|3}")
	p.Seed(1)
	if got := p.Expand("{@1|2|3}"); got != "2" {
		t.Errorf("seeding must not reset cyclical state, got %q", got)
	}
}

func TestWithRand(t *testing.T) {
	p := NewProcessor(nil, WithRand(rand.New(rand.NewPCG(9, 9))))
	q := NewProcessor(nil, WithRand(rand.New(rand.NewPCG(9, 9))))
	text := "{a|b|c|d|e|f} {2$$1|2|3|4}"
	for i := 0; i < 10; i++ {
		if x, y := p.Expand(text), q.Expand(text); x != y {
			t.Fatalf("equal sources diverged: %q vs %q", x, y)
		}
	}
}

func TestExpand_SharedProcessorSerializesCursor(t *testing.T) {
	p := NewProcessor(nil)
	const workers, perWorker = 8, 50

	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				got := p.Expand("{@a|b|c|d}")
				mu.Lock()
				counts[got]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total := workers * perWorker
	for _, opt := range []string{"a", "b", "c", "d"} {
		if counts[opt] != total/4 {
			t.Errorf("option %q returned %d times, want %d", opt, counts[opt], total/4)
		}
	}
}

func TestExpandPassesSeparately(t *testing.T) {
	p := NewProcessor(domain.MapResolver{"w": {"{a|a}"}})
	if got := p.ExpandWildcards("__w__"); got != "{a|a}" {
		t.Errorf("wildcard pass only: got %q", got)
	}
	if got := p.ExpandVariants("__w__ {b|b}"); got != "__w__ b" {
		t.Errorf("variant pass only: got %q", got)
	}
	if !strings.Contains(p.Expand("__w__"), "a") {
		t.Error("full expansion should resolve both passes")
	}
}
