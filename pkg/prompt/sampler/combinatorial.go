package sampler

import "sync"

// Combinatorial hands out every option of a list exactly once, in order.
// Once a list is used up it reports ok == false for that list forever.
type Combinatorial struct {
	mu       sync.Mutex
	consumed map[string]int
}

func NewCombinatorial() *Combinatorial {
	return &Combinatorial{consumed: make(map[string]int)}
}

func (c *Combinatorial) Sample(options []string) (string, bool) {
	key := OptionKey(options)

	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.consumed[key]
	if pos >= len(options) {
		return "", false
	}
	c.consumed[key] = pos + 1
	return options[pos], true
}

// Remaining reports how many options of the list are still unused.
func (c *Combinatorial) Remaining(options []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(options) - min(c.consumed[OptionKey(options)], len(options))
}
