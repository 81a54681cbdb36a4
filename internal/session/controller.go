// Package session holds the transient state of one parent-control session:
// whether the adult is authenticated, how many PIN attempts failed, and the
// last error to show. Nothing here is persisted.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/services/parentcontrol"
	"github.com/google/uuid"
)

const (
	DefaultMaxAttempts  = 3
	DefaultLockoutReset = 5 * time.Minute

	lockoutMessage = "Too many failed attempts. Please try again later."
)

// PermissionRequester is the part of privacy.Manager the controller needs.
type PermissionRequester interface {
	RequestPermission(ctx context.Context, kind models.Permission) (bool, error)
}

// State is a snapshot of the session.
type State struct {
	Authenticated  bool
	FailedAttempts int
	LastAttempt    time.Time
	ErrorMessage   string
	Busy           bool
	Locked         bool
	Policy         *models.ControlPolicy
}

type Option func(*Controller)

func WithMaxAttempts(n int) Option {
	return func(c *Controller) { c.maxAttempts = n }
}

// WithLockoutReset sets how often FailedAttempts is cleared by Run.
func WithLockoutReset(d time.Duration) Option {
	return func(c *Controller) { c.resetEvery = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type Controller struct {
	engine      parentcontrol.Service
	permissions PermissionRequester
	logger      logging.Logger
	maxAttempts int
	resetEvery  time.Duration
	now         func() time.Time

	busy atomic.Bool

	mu             sync.RWMutex
	authenticated  bool
	failedAttempts int
	lastAttempt    time.Time
	errorMessage   string
	policy         *models.ControlPolicy
}

func NewController(engine parentcontrol.Service, permissions PermissionRequester,
	logger logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		engine:      engine,
		permissions: permissions,
		logger:      logger.With("component", "session"),
		maxAttempts: DefaultMaxAttempts,
		resetEvery:  DefaultLockoutReset,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := State{
		Authenticated:  c.authenticated,
		FailedAttempts: c.failedAttempts,
		LastAttempt:    c.lastAttempt,
		ErrorMessage:   c.errorMessage,
		Busy:           c.busy.Load(),
		Locked:         !c.authenticated && c.failedAttempts >= c.maxAttempts,
	}
	if c.policy != nil {
		s.Policy = c.policy.Clone()
	}
	return s
}

// guard runs fn unless another guarded call is in flight, in which case it
// does nothing and returns nil.
func (c *Controller) guard(ctx context.Context, op string, fn func() error) error {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug(ctx, "operation skipped, session busy", "op", op)
		return nil
	}
	defer c.busy.Store(false)

	c.setMessage("")
	return fn()
}

func (c *Controller) LoadPolicy(ctx context.Context) error {
	return c.guard(ctx, "load_policy", func() error {
		return c.reload(ctx)
	})
}

func (c *Controller) reload(ctx context.Context) error {
	p, err := c.engine.GetPolicy(ctx)
	if err != nil {
		c.fail(ctx, "load_policy", err)
		return err
	}
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
	return nil
}

// SubmitPin checks pin through the engine. A wrong PIN counts as a failed
// attempt; engine errors, including the cooldown, do not.
func (c *Controller) SubmitPin(ctx context.Context, pin string) error {
	return c.guard(ctx, "submit_pin", func() error {
		ok, err := c.engine.ValidatePin(ctx, pin)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.lastAttempt = c.now()

		if err != nil {
			c.errorMessage = common.UserMessage(err)
			return err
		}

		c.authenticated = ok
		if ok {
			c.failedAttempts = 0
			c.logger.Info(ctx, "session authenticated", "method", "pin")
			return nil
		}

		c.failedAttempts++
		if remaining := c.maxAttempts - c.failedAttempts; remaining > 0 {
			c.errorMessage = fmt.Sprintf("Invalid PIN code. %d attempts remaining.", remaining)
		} else {
			c.errorMessage = lockoutMessage
		}
		c.logger.Warn(ctx, "pin rejected", "failed_attempts", c.failedAttempts)
		return nil
	})
}

// UnlockWithBiometrics authenticates through the device's biometric sensor.
func (c *Controller) UnlockWithBiometrics(ctx context.Context) error {
	return c.guard(ctx, "unlock_biometrics", func() error {
		ok, err := c.permissions.RequestPermission(ctx, models.PermissionBiometric)
		if err != nil {
			c.fail(ctx, "unlock_biometrics", err)
			return err
		}

		c.mu.Lock()
		c.authenticated = ok
		if ok {
			c.failedAttempts = 0
		}
		c.mu.Unlock()

		c.logger.Info(ctx, "session authenticated", "method", "biometric")
		return nil
	})
}

// The mutations below assume the caller has already reached Authenticated.

func (c *Controller) UpdatePin(ctx context.Context, pin string) error {
	return c.mutate(ctx, "update_pin", func() error { return c.engine.UpdatePin(ctx, pin) })
}

func (c *Controller) UpdateDailyLimit(ctx context.Context, limit int) error {
	return c.mutate(ctx, "update_daily_limit", func() error { return c.engine.UpdateDailyLimit(ctx, limit) })
}

func (c *Controller) ToggleEnabled(ctx context.Context) error {
	return c.mutate(ctx, "toggle_enabled", func() error { return c.engine.ToggleEnabled(ctx) })
}

func (c *Controller) UpdateAllowedRewards(ctx context.Context, ids []uuid.UUID) error {
	return c.mutate(ctx, "update_allowed_rewards", func() error { return c.engine.UpdateAllowedRewards(ctx, ids) })
}

func (c *Controller) ResetPolicy(ctx context.Context) error {
	return c.mutate(ctx, "reset_policy", func() error { return c.engine.ResetPolicy(ctx) })
}

func (c *Controller) mutate(ctx context.Context, op string, fn func() error) error {
	return c.guard(ctx, op, func() error {
		if err := fn(); err != nil {
			c.fail(ctx, op, err)
			return err
		}
		return c.reload(ctx)
	})
}

func (c *Controller) ClearError() {
	c.setMessage("")
}

// Lock drops authentication. Failed attempts are kept.
func (c *Controller) Lock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = false
}

// Run clears FailedAttempts every lockout interval until ctx is done,
// whatever the current state.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.resetEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.failedAttempts = 0
			c.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) fail(ctx context.Context, op string, err error) {
	c.logger.Error(ctx, "session operation failed", "op", op, "error", err)
	c.setMessage(common.UserMessage(err))
}

func (c *Controller) setMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorMessage = msg
}
