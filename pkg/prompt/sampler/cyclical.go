package sampler

import "sync"

// Cyclical walks an option list in order, wrapping around at the end.
// The first call for a given list returns its first option.
type Cyclical struct {
	mu      sync.Mutex
	cursors map[string]int
}

func NewCyclical() *Cyclical {
	return &Cyclical{cursors: make(map[string]int)}
}

func (c *Cyclical) Sample(options []string) (string, bool) {
	if len(options) == 0 {
		return "", false
	}

	key := OptionKey(options)

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, seen := c.cursors[key]
	if seen {
		idx = (idx + 1) % len(options)
	}
	c.cursors[key] = idx
	return options[idx], true
}
