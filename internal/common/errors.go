// Package common defines sentinel errors and small helpers shared by every
// layer of GophGuard. Callers should use errors.Is to match these values;
// details are attached by wrapping with fmt.Errorf("%w: ...").
package common

import "errors"

var (
	// Validation errors (local, user-correctable).
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidPolicy = errors.New("invalid parent control policy")

	// Rate limiting: the PIN check cooldown has not elapsed yet.
	ErrTooManyAttempts = errors.New("too many attempts")

	// Durable store failures. They are surfaced, never retried automatically.
	ErrStorageRead  = errors.New("storage read failed")
	ErrStorageWrite = errors.New("storage write failed")

	// External-system refusals.
	ErrBiometricsUnavailable = errors.New("biometrics not available")
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrNotificationDenied    = errors.New("notification permission denied")

	// Gate decisions consumed by goal/reward collaborators.
	ErrRewardNotAllowed = errors.New("reward not allowed")
	ErrGoalLimitReached = errors.New("daily goal limit reached")
)
