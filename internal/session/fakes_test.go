package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/google/uuid"
)

// fakeEngine is a scripted parentcontrol.Service.
type fakeEngine struct {
	mu        sync.Mutex
	policy    *models.ControlPolicy
	validErr  error
	getErr    error
	updateErr error
	gets      int
	validates int

	// block, when set, is received from inside ValidatePin before returning.
	block chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{policy: models.DefaultControlPolicy(start)}
}

func (f *fakeEngine) GetPolicy(context.Context) (*models.ControlPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.policy.Clone(), nil
}

func (f *fakeEngine) UpdatePolicy(_ context.Context, p *models.ControlPolicy) error {
	return f.apply(func(cur *models.ControlPolicy) { *cur = *p.Clone() })
}

func (f *fakeEngine) ValidatePin(_ context.Context, candidate string) (bool, error) {
	f.mu.Lock()
	f.validates++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validErr != nil {
		return false, f.validErr
	}
	return candidate == f.policy.Pin, nil
}

func (f *fakeEngine) UpdatePin(_ context.Context, pin string) error {
	return f.apply(func(p *models.ControlPolicy) { p.Pin = pin })
}

func (f *fakeEngine) UpdateDailyLimit(_ context.Context, limit int) error {
	return f.apply(func(p *models.ControlPolicy) { p.DailyLimit = limit })
}

func (f *fakeEngine) ToggleEnabled(context.Context) error {
	return f.apply(func(p *models.ControlPolicy) { p.Enabled = !p.Enabled })
}

func (f *fakeEngine) UpdateAllowedRewards(_ context.Context, ids []uuid.UUID) error {
	return f.apply(func(p *models.ControlPolicy) { p.AllowedRewards = models.NewRewardSet(ids...) })
}

func (f *fakeEngine) ResetPolicy(context.Context) error {
	return f.apply(func(p *models.ControlPolicy) { *p = *models.DefaultControlPolicy(start) })
}

func (f *fakeEngine) CheckReward(context.Context, uuid.UUID) error { return nil }

func (f *fakeEngine) CheckDailyLimit(context.Context, int) error { return nil }

func (f *fakeEngine) apply(fn func(p *models.ControlPolicy)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	fn(f.policy)
	return nil
}

func (f *fakeEngine) validateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validates
}

type fakePermissions struct {
	ok  bool
	err error
}

func (f *fakePermissions) RequestPermission(context.Context, models.Permission) (bool, error) {
	return f.ok, f.err
}
