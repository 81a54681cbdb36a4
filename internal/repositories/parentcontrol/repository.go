// Package parentcontrol composes the settings store, the credential vault and
// an in-memory cache behind a single read/write contract for the parent
// control policy.
//
// The vault is authoritative for the PIN; the settings record is
// authoritative for everything else. The default PIN is never sealed: an
// empty vault slot means DefaultPin, so saving it deletes the credential. The two writes are not atomic: a failed
// vault write after a successful settings write is reported as
// common.ErrStorageWrite and the cache is dropped.
package parentcontrol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/repositories/settings"
	"github.com/dmitrijs2005/gophguard/internal/repositories/vault"
)

const (
	PolicyKey = "parent_control"
	PinTag    = "parent_control_pin"
)

// Repository is the read/write contract used by the access control service.
type Repository interface {
	Fetch(ctx context.Context) (*models.ControlPolicy, error)
	Save(ctx context.Context, p *models.ControlPolicy) error
	// Update runs fetch, fn, save as one uninterruptible sequence. When fn
	// returns an error nothing is saved and that error is returned as is.
	Update(ctx context.Context, fn func(p *models.ControlPolicy) error) error
	// Invalidate drops the cached policy so the next read goes to the stores,
	// picking up writes made by another process.
	Invalidate()
}

type repository struct {
	settings settings.Repository
	vault    vault.Repository
	logger   logging.Logger
	now      func() time.Time

	// mu serializes every fetch/save so read-modify-write sequences never
	// interleave and a save is visible to any fetch issued after it returns.
	mu    sync.Mutex
	cache policyCache
}

func NewRepository(s settings.Repository, v vault.Repository, logger logging.Logger) Repository {
	return newRepository(s, v, logger, time.Now)
}

func newRepository(s settings.Repository, v vault.Repository, logger logging.Logger, now func() time.Time) *repository {
	return &repository{
		settings: s,
		vault:    v,
		logger:   logger.With("component", "parent_control_repository"),
		now:      now,
	}
}

func (r *repository) Fetch(ctx context.Context) (*models.ControlPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchLocked(ctx)
}

func (r *repository) Save(ctx context.Context, p *models.ControlPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(ctx, p)
}

func (r *repository) Update(ctx context.Context, fn func(p *models.ControlPolicy) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.fetchLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return r.saveLocked(ctx, p)
}

func (r *repository) Invalidate() {
	r.cache.clear()
}

func (r *repository) fetchLocked(ctx context.Context) (*models.ControlPolicy, error) {
	if p, ok := r.cache.get(); ok {
		return p, nil
	}

	data, err := r.settings.Get(ctx, PolicyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageRead, err)
	}

	var p *models.ControlPolicy
	if data == nil {
		r.logger.Info(ctx, "no saved policy, using defaults")
		p = models.DefaultControlPolicy(r.now())
	} else {
		p = &models.ControlPolicy{}
		if err := json.Unmarshal(data, p); err != nil {
			r.logger.Error(ctx, "corrupt policy record", "error", err)
			return nil, fmt.Errorf("%w: decode policy: %w", common.ErrStorageRead, err)
		}
		if p.AllowedRewards == nil {
			p.AllowedRewards = models.NewRewardSet()
		}
	}

	pin, err := r.vault.Load(ctx, PinTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageRead, err)
	}
	if pin != nil {
		p.Pin = string(pin)
		common.WipeByteArray(pin)
	} else {
		p.Pin = models.DefaultPin
	}

	r.cache.set(p)
	return p.Clone(), nil
}

// saveLocked writes the policy record, then the PIN, then the cache. Any
// failure leaves the cache empty so the next fetch re-reads both stores.
func (r *repository) saveLocked(ctx context.Context, p *models.ControlPolicy) error {
	data, err := json.Marshal(p)
	if err != nil {
		r.cache.clear()
		return fmt.Errorf("%w: encode policy: %w", common.ErrStorageWrite, err)
	}

	if err := r.settings.Set(ctx, PolicyKey, data); err != nil {
		r.cache.clear()
		return fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}

	if err := r.savePin(ctx, p.Pin); err != nil {
		r.cache.clear()
		r.logger.Error(ctx, "policy saved but PIN write failed", "error", err)
		return fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}

	r.cache.set(p)
	return nil
}

func (r *repository) savePin(ctx context.Context, pin string) error {
	if pin == models.DefaultPin {
		return r.vault.Delete(ctx, PinTag)
	}
	return r.vault.Store(ctx, PinTag, []byte(pin))
}
