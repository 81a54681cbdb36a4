package models

import "time"

const (
	DefaultPin        = "1234"
	PinLength         = 4
	DefaultDailyLimit = 5
	MinDailyLimit     = 1
	MaxDailyLimit     = 20

	ModifiedBySystem = "system"
	ModifiedByUser   = "user"
)

// ControlPolicy is the parent control configuration.
//
// Pin is the secret credential. It is never part of the JSON form: the
// repository stores it in the credential vault and merges it back on read.
type ControlPolicy struct {
	Pin string `json:"-"`

	// Enabled turns gating on.
	Enabled bool `json:"enabled"`

	// DailyLimit is the number of actions that may be approved per calendar day.
	DailyLimit int `json:"daily_limit"`

	// AllowedRewards may be redeemed without re-approval.
	AllowedRewards RewardSet `json:"allowed_rewards"`

	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	LastModifiedBy string    `json:"last_modified_by"`
}

// DefaultControlPolicy is the policy used when nothing has been saved yet.
func DefaultControlPolicy(now time.Time) *ControlPolicy {
	now = Timestamp(now)
	return &ControlPolicy{
		Pin:            DefaultPin,
		Enabled:        false,
		DailyLimit:     DefaultDailyLimit,
		AllowedRewards: NewRewardSet(),
		CreatedAt:      now,
		LastModifiedAt: now,
		LastModifiedBy: ModifiedBySystem,
	}
}

// Timestamp normalizes t for storage: UTC, no monotonic reading. A stamped
// value survives a JSON round trip unchanged.
func Timestamp(t time.Time) time.Time {
	return t.UTC()
}

// IsValidPin reports whether pin is exactly PinLength ASCII digits.
func IsValidPin(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// IsValidDailyLimit reports whether n is inside [MinDailyLimit, MaxDailyLimit].
func IsValidDailyLimit(n int) bool {
	return n >= MinDailyLimit && n <= MaxDailyLimit
}

// IsValid holds iff the pin is well formed and the daily limit is in range.
// A policy failing it must never be persisted.
func (p *ControlPolicy) IsValid() bool {
	return IsValidPin(p.Pin) && IsValidDailyLimit(p.DailyLimit)
}

// Touch stamps the modification time and actor.
func (p *ControlPolicy) Touch(now time.Time, by string) {
	p.LastModifiedAt = Timestamp(now)
	p.LastModifiedBy = by
}

// Clone returns a deep copy.
func (p *ControlPolicy) Clone() *ControlPolicy {
	if p == nil {
		return nil
	}
	c := *p
	c.AllowedRewards = p.AllowedRewards.Clone()
	return &c
}

// Equal compares every field, timestamps by instant.
func (p *ControlPolicy) Equal(o *ControlPolicy) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Pin == o.Pin &&
		p.Enabled == o.Enabled &&
		p.DailyLimit == o.DailyLimit &&
		p.AllowedRewards.Equal(o.AllowedRewards) &&
		p.CreatedAt.Equal(o.CreatedAt) &&
		p.LastModifiedAt.Equal(o.LastModifiedAt) &&
		p.LastModifiedBy == o.LastModifiedBy
}
