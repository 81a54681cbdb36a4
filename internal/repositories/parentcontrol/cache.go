package parentcontrol

import (
	"sync"

	"github.com/dmitrijs2005/gophguard/internal/models"
)

// policyCache is a single guarded slot. It stores and hands out copies, so
// callers can never mutate the cached value in place.
type policyCache struct {
	mu     sync.Mutex
	policy *models.ControlPolicy
}

func (c *policyCache) get() (*models.ControlPolicy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.policy == nil {
		return nil, false
	}
	return c.policy.Clone(), true
}

func (c *policyCache) set(p *models.ControlPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p.Clone()
}

func (c *policyCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = nil
}
