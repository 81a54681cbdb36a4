package device

import (
	"context"
	"errors"
)

var errNoSensor = errors.New("this device has no biometric sensor")

// NoBiometrics reports every evaluation as impossible.
type NoBiometrics struct{}

func (NoBiometrics) CanEvaluate(context.Context) error {
	return errNoSensor
}

func (NoBiometrics) Evaluate(_ context.Context, _ string, reply func(ok bool, reason string)) {
	reply(false, errNoSensor.Error())
}
