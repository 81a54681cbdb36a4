package parentcontrol

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/models"
)

// fakeRepo keeps one policy in memory and counts writes.
type fakeRepo struct {
	mu       sync.Mutex
	policy   *models.ControlPolicy
	fetchErr error
	saveErr  error
	saves    int
}

func newFakeRepo(p *models.ControlPolicy) *fakeRepo {
	return &fakeRepo{policy: p.Clone()}
}

func (f *fakeRepo) Fetch(_ context.Context) (*models.ControlPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.policy.Clone(), nil
}

func (f *fakeRepo) Save(_ context.Context, p *models.ControlPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(p)
}

func (f *fakeRepo) saveLocked(p *models.ControlPolicy) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.policy = p.Clone()
	return nil
}

func (f *fakeRepo) Update(_ context.Context, fn func(p *models.ControlPolicy) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return f.fetchErr
	}
	p := f.policy.Clone()
	if err := fn(p); err != nil {
		return err
	}
	return f.saveLocked(p)
}

func (f *fakeRepo) Invalidate() {}

func (f *fakeRepo) stored() *models.ControlPolicy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.policy.Clone()
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
