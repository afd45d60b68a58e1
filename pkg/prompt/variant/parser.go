package variant

import (
	"strings"

	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

// Node is either a Literal or a *Group.
type Node interface {
	isNode()
}

// Literal is template text copied to the output unchanged.
type Literal string

// Group is one parsed {...} construct.
type Group struct {
	Prefix       byte   // sampler prefix, 0 when absent
	Count        string // raw count token ("2", "1-3"), empty when absent
	Separator    string
	HasSeparator bool
	Content      []Node
}

func (Literal) isNode() {}
func (*Group) isNode()  {}

// HasCount reports whether the group selects several options.
func (g *Group) HasCount() bool { return g.Count != "" }

// Parse builds the node tree for text. It never fails: a brace without a
// partner is emitted as a literal.
func Parse(text string) []Node {
	p := &parser{src: text, closeAt: matchBraces(text)}
	return p.nodes(0, len(text))
}

type parser struct {
	src     string
	closeAt map[int]int // index of '{' -> index of its matching '}'
}

// matchBraces pairs every balanced '{' with its '}' in one pass.
func matchBraces(s string) map[int]int {
	pairs := make(map[int]int)
	var open []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			open = append(open, i)
		case '}':
			if n := len(open); n > 0 {
				pairs[open[n-1]] = i
				open = open[:n-1]
			}
		}
	}
	return pairs
}

func (p *parser) nodes(start, end int) []Node {
	var out []Node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			out = append(out, Literal(lit.String()))
			lit.Reset()
		}
	}

	for i := start; i < end; i++ {
		c := p.src[i]
		if c != '{' {
			lit.WriteByte(c)
			continue
		}
		closing, ok := p.closeAt[i]
		if !ok || closing >= end {
			lit.WriteByte(c)
			continue
		}
		flush()
		out = append(out, p.group(i+1, closing))
		i = closing
	}
	flush()
	return out
}

// group parses the body between a matched pair of braces.
func (p *parser) group(start, end int) *Group {
	g := &Group{}
	pos := start

	if pos < end && domain.IsSamplerPrefix(p.src[pos]) {
		g.Prefix = p.src[pos]
		pos++
	}

	if count, next, ok := p.countSpec(pos, end); ok {
		g.Count = count
		pos = next
		// an empty "$$$$" separator is consumed but keeps the default
		if sep, after, ok := p.separator(pos, end); ok {
			g.Separator = sep
			g.HasSeparator = sep != ""
			pos = after
		}
	}

	g.Content = p.nodes(pos, end)
	return g
}

// countSpec matches DIGITS ( "-" DIGITS )? "$$" at pos.
func (p *parser) countSpec(pos, end int) (count string, next int, ok bool) {
	i := skipDigits(p.src, pos, end)
	if i == pos {
		return "", pos, false
	}
	if i < end && p.src[i] == '-' {
		if j := skipDigits(p.src, i+1, end); j > i+1 {
			i = j
		}
	}
	if !hasDollarPair(p.src, i, end) {
		return "", pos, false
	}
	return p.src[pos:i], i + 2, true
}

// separator matches a run free of '$', '{', '}' and '|' followed by "$$".
func (p *parser) separator(pos, end int) (sep string, next int, ok bool) {
	i := pos
	for i < end && !strings.ContainsRune("${}|", rune(p.src[i])) {
		i++
	}
	if !hasDollarPair(p.src, i, end) {
		return "", pos, false
	}
	return p.src[pos:i], i + 2, true
}

func skipDigits(s string, i, end int) int {
	for i < end && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func hasDollarPair(s string, i, end int) bool {
	return i+1 < end && s[i] == '$' && s[i+1] == '$'
}

// SplitOptions splits resolved group content on '|' at brace depth zero and
// trims each option. The result always has at least one element.
func SplitOptions(content string) []string {
	var options []string
	depth := 0
	last := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '|':
			if depth == 0 {
				options = append(options, strings.TrimSpace(content[last:i]))
				last = i + 1
			}
		}
	}
	return append(options, strings.TrimSpace(content[last:]))
}
