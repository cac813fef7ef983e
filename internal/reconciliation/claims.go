package reconciliation

import "sync"

// claims is a single-assignment availability array over one ledger's
// positions. A position can be taken at most once.
type claims struct {
	mu    sync.Mutex
	taken []bool
}

func newClaims(n int) *claims {
	return &claims{taken: make([]bool, n)}
}

// take marks position i as used and reports whether this call won it.
func (c *claims) take(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken[i] {
		return false
	}
	c.taken[i] = true
	return true
}

func (c *claims) available(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.taken[i]
}

// remaining lists the untaken positions in ascending order.
func (c *claims) remaining() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []int
	for i, t := range c.taken {
		if !t {
			out = append(out, i)
		}
	}
	return out
}
