package parentcontrol

import (
	"fmt"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
)

// Validator holds the input rules for PINs, daily limits and whole policies.
type Validator struct{}

func (Validator) ValidatePin(pin string) error {
	switch {
	case pin == "":
		return fmt.Errorf("%w: PIN code cannot be empty", common.ErrInvalidInput)
	case len(pin) != models.PinLength:
		return fmt.Errorf("%w: PIN code must be %d digits", common.ErrInvalidInput, models.PinLength)
	case !models.IsValidPin(pin):
		return fmt.Errorf("%w: PIN code must contain only numbers", common.ErrInvalidInput)
	}
	return nil
}

func (Validator) ValidateDailyLimit(limit int) error {
	switch {
	case limit < models.MinDailyLimit:
		return fmt.Errorf("%w: Daily limit must be at least %d", common.ErrInvalidInput, models.MinDailyLimit)
	case limit > models.MaxDailyLimit:
		return fmt.Errorf("%w: Daily limit cannot exceed %d", common.ErrInvalidInput, models.MaxDailyLimit)
	}
	return nil
}

// ValidatePolicy reports the first failing rule as common.ErrInvalidPolicy,
// keeping the underlying common.ErrInvalidInput in the chain.
func (v Validator) ValidatePolicy(p *models.ControlPolicy) error {
	if p == nil {
		return fmt.Errorf("%w: missing policy", common.ErrInvalidPolicy)
	}
	if err := v.ValidatePin(p.Pin); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidPolicy, err)
	}
	if err := v.ValidateDailyLimit(p.DailyLimit); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidPolicy, err)
	}
	return nil
}
