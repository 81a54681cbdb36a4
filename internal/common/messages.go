package common

import "errors"

// UserMessage converts an error into the single line shown to the person in
// front of the device. Unknown errors fall back to a generic text.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidPolicy):
		return "Invalid value: " + detail(err)
	case errors.Is(err, ErrTooManyAttempts):
		return "Please wait before trying again."
	case errors.Is(err, ErrStorageRead):
		return "Could not load data. Please try again."
	case errors.Is(err, ErrStorageWrite):
		return "Could not save data. Please try again."
	case errors.Is(err, ErrBiometricsUnavailable):
		return "Biometrics not available: " + detail(err)
	case errors.Is(err, ErrAuthenticationFailed):
		return "Authentication failed: " + detail(err)
	case errors.Is(err, ErrNotificationDenied):
		return "Notification permission denied."
	case errors.Is(err, ErrRewardNotAllowed):
		return "This reward is not allowed by your parents."
	case errors.Is(err, ErrGoalLimitReached):
		return "You've reached your daily goal limit."
	default:
		return "Something went wrong. Please try again."
	}
}

// detail returns the innermost wrapping text, i.e. what follows "sentinel: ".
func detail(err error) string {
	msg := err.Error()
	for _, s := range []error{
		ErrInvalidInput, ErrInvalidPolicy, ErrBiometricsUnavailable, ErrAuthenticationFailed,
	} {
		prefix := s.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
