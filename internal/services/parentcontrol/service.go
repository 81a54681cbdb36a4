// Package parentcontrol implements the access control use cases: reading and
// changing the parent control policy, and checking PINs under a cooldown.
//
// Every operation re-reads the policy through the repository; callers never
// hand in state that could be stale.
package parentcontrol

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	pcrepo "github.com/dmitrijs2005/gophguard/internal/repositories/parentcontrol"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultPinCooldown is the minimum spacing between two PIN checks.
const DefaultPinCooldown = 1 * time.Second

// Service is the full surface offered to the session layer and, through
// GetPolicy/ValidatePin/CheckReward/CheckDailyLimit, to goal and reward
// collaborators.
type Service interface {
	GetPolicy(ctx context.Context) (*models.ControlPolicy, error)
	UpdatePolicy(ctx context.Context, p *models.ControlPolicy) error
	ValidatePin(ctx context.Context, candidate string) (bool, error)
	UpdatePin(ctx context.Context, pin string) error
	UpdateDailyLimit(ctx context.Context, limit int) error
	ToggleEnabled(ctx context.Context) error
	UpdateAllowedRewards(ctx context.Context, ids []uuid.UUID) error
	ResetPolicy(ctx context.Context) error
	CheckReward(ctx context.Context, id uuid.UUID) error
	CheckDailyLimit(ctx context.Context, approvedToday int) error
}

type Option func(*service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithCooldown overrides DefaultPinCooldown.
func WithCooldown(d time.Duration) Option {
	return func(s *service) { s.cooldown = d }
}

type service struct {
	repo      pcrepo.Repository
	validator Validator
	logger    logging.Logger
	now       func() time.Time
	cooldown  time.Duration

	// attempts lets one PIN check through per cooldown window.
	attempts *rate.Limiter
}

func NewService(repo pcrepo.Repository, logger logging.Logger, opts ...Option) Service {
	s := &service{
		repo:     repo,
		logger:   logger.With("component", "parent_control"),
		now:      time.Now,
		cooldown: DefaultPinCooldown,
	}
	for _, o := range opts {
		o(s)
	}
	s.attempts = rate.NewLimiter(rate.Every(s.cooldown), 1)
	return s
}

func (s *service) GetPolicy(ctx context.Context) (*models.ControlPolicy, error) {
	s.logger.Debug(ctx, "fetch policy", "action", "fetch_parent_control")
	return s.repo.Fetch(ctx)
}

func (s *service) UpdatePolicy(ctx context.Context, p *models.ControlPolicy) error {
	if err := s.validator.ValidatePolicy(p); err != nil {
		s.logger.Warn(ctx, "policy rejected", "action", "update_parent_control", "error", err)
		return err
	}
	s.logger.Info(ctx, "update policy", "action", "update_parent_control",
		"enabled", p.Enabled, "daily_limit", p.DailyLimit)

	return s.repo.Update(ctx, func(current *models.ControlPolicy) error {
		*current = *p.Clone()
		current.Touch(s.now(), current.LastModifiedBy)
		return nil
	})
}

// ValidatePin checks candidate against the stored PIN. A wrong PIN is a
// normal false result. The cooldown is armed before input validation, so
// malformed attempts count too.
func (s *service) ValidatePin(ctx context.Context, candidate string) (bool, error) {
	if !s.attempts.AllowN(s.now(), 1) {
		s.logger.Warn(ctx, "pin check throttled", "action", "validate_pin")
		return false, fmt.Errorf("%w: please wait before trying again", common.ErrTooManyAttempts)
	}
	s.logger.Info(ctx, "validate pin", "action", "validate_pin", "length", len(candidate))

	if err := s.validator.ValidatePin(candidate); err != nil {
		return false, err
	}

	p, err := s.repo.Fetch(ctx)
	if err != nil {
		return false, err
	}

	ok := subtle.ConstantTimeCompare([]byte(p.Pin), []byte(candidate)) == 1
	if !ok {
		s.logger.Warn(ctx, "pin mismatch", "action", "validate_pin")
	}
	return ok, nil
}

func (s *service) UpdatePin(ctx context.Context, pin string) error {
	s.logger.Info(ctx, "update pin", "action", "update_pin", "length", len(pin))

	if err := s.validator.ValidatePin(pin); err != nil {
		return err
	}
	return s.mutate(ctx, func(p *models.ControlPolicy) {
		p.Pin = pin
	})
}

func (s *service) UpdateDailyLimit(ctx context.Context, limit int) error {
	s.logger.Info(ctx, "update daily limit", "action", "update_daily_limit", "new_limit", limit)

	if err := s.validator.ValidateDailyLimit(limit); err != nil {
		return err
	}
	return s.mutate(ctx, func(p *models.ControlPolicy) {
		p.DailyLimit = limit
	})
}

func (s *service) ToggleEnabled(ctx context.Context) error {
	return s.mutate(ctx, func(p *models.ControlPolicy) {
		p.Enabled = !p.Enabled
		s.logger.Info(ctx, "toggle parent control", "action", "toggle_parent_control", "new_state", p.Enabled)
	})
}

func (s *service) UpdateAllowedRewards(ctx context.Context, ids []uuid.UUID) error {
	s.logger.Info(ctx, "update allowed rewards", "action", "update_allowed_rewards", "count", len(ids))

	return s.mutate(ctx, func(p *models.ControlPolicy) {
		p.AllowedRewards = models.NewRewardSet(ids...)
	})
}

// ResetPolicy overwrites the policy, PIN included, with the defaults.
func (s *service) ResetPolicy(ctx context.Context) error {
	s.logger.Info(ctx, "reset policy", "action", "reset_parent_control")

	return s.mutate(ctx, func(p *models.ControlPolicy) {
		*p = *models.DefaultControlPolicy(s.now())
	})
}

// CheckReward returns common.ErrRewardNotAllowed when gating is on and id is
// not allow-listed.
func (s *service) CheckReward(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.Fetch(ctx)
	if err != nil {
		return err
	}
	if p.Enabled && !p.AllowedRewards.Contains(id) {
		return fmt.Errorf("%w: %s", common.ErrRewardNotAllowed, id)
	}
	return nil
}

// CheckDailyLimit returns common.ErrGoalLimitReached when gating is on and
// approvedToday has reached the daily limit.
func (s *service) CheckDailyLimit(ctx context.Context, approvedToday int) error {
	p, err := s.repo.Fetch(ctx)
	if err != nil {
		return err
	}
	if p.Enabled && approvedToday >= p.DailyLimit {
		return fmt.Errorf("%w: %d of %d", common.ErrGoalLimitReached, approvedToday, p.DailyLimit)
	}
	return nil
}

// mutate applies fn to the current policy inside one repository update and
// stamps it as a user change. The result is validated before it is saved.
func (s *service) mutate(ctx context.Context, fn func(p *models.ControlPolicy)) error {
	err := s.repo.Update(ctx, func(p *models.ControlPolicy) error {
		fn(p)
		p.Touch(s.now(), models.ModifiedByUser)
		return s.validator.ValidatePolicy(p)
	})
	if err != nil {
		s.logger.Error(ctx, "policy update failed", "error", err)
	}
	return err
}
