package privacy

import "context"

// Authenticator is the device's biometric authenticator.
type Authenticator interface {
	// CanEvaluate returns nil when biometric evaluation is possible, and an
	// error describing why not otherwise.
	CanEvaluate(ctx context.Context) error
	// Evaluate prompts the user and calls reply exactly once, possibly from
	// another goroutine. reason describes the failure when ok is false.
	Evaluate(ctx context.Context, prompt string, reply func(ok bool, reason string))
}

// NotificationAuthority is the OS-level notification permission owner.
type NotificationAuthority interface {
	Authorized(ctx context.Context) (bool, error)
	// RequestAuthorization prompts the user and calls reply exactly once.
	RequestAuthorization(ctx context.Context, reply func(granted bool, err error))
}
