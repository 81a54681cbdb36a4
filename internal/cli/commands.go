package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/google/uuid"
)

var errUsage = errors.New("usage")

// report prints and clears the session's error message, if any.
func (a *App) report() {
	s := a.session.State()
	if s.ErrorMessage != "" {
		fmt.Fprintln(a.out, s.ErrorMessage)
		a.session.ClearError()
	}
}

func (a *App) usage(text string) error {
	fmt.Fprintln(a.out, "Usage:", text)
	return errUsage
}

func (a *App) Status(ctx context.Context) error {
	if err := a.session.LoadPolicy(ctx); err != nil {
		a.report()
		return err
	}
	s := a.session.State()
	p := s.Policy
	if p == nil {
		fmt.Fprintln(a.out, "Policy not loaded yet.")
		return nil
	}

	fmt.Fprintf(a.out, "Parent control: %s\n", onOff(p.Enabled))
	fmt.Fprintf(a.out, "Daily goal limit: %d\n", p.DailyLimit)
	fmt.Fprintf(a.out, "Allowed rewards: %d\n", p.AllowedRewards.Len())
	for _, id := range p.AllowedRewards.IDs() {
		fmt.Fprintf(a.out, "  %s\n", id)
	}
	fmt.Fprintf(a.out, "Last modified: %s by %s\n", p.LastModifiedAt.Format("2006-01-02 15:04:05"), p.LastModifiedBy)
	fmt.Fprintf(a.out, "Failed PIN attempts: %d\n", s.FailedAttempts)
	fmt.Fprintf(a.out, "Privacy policy accepted: %t\n", a.privacy.PrivacyPolicyAccepted())
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a *App) Unlock(ctx context.Context) error {
	pin, err := a.promptPin(ctx, "Enter PIN")
	if err != nil {
		return err
	}
	err = a.session.SubmitPin(ctx, pin)
	if a.isAuthenticated() {
		fmt.Fprintln(a.out, "Unlocked.")
	}
	a.report()
	return err
}

func (a *App) Biometric(ctx context.Context) error {
	err := a.session.UnlockWithBiometrics(ctx)
	if a.isAuthenticated() {
		fmt.Fprintln(a.out, "Unlocked.")
	}
	a.report()
	return err
}

func (a *App) SetPin(ctx context.Context) error {
	pin, err := a.promptPin(ctx, "Enter new PIN")
	if err != nil {
		return err
	}
	again, err := a.promptPin(ctx, "Repeat new PIN")
	if err != nil {
		return err
	}
	if pin != again {
		fmt.Fprintln(a.out, "PINs do not match.")
		return fmt.Errorf("%w: PINs do not match", common.ErrInvalidInput)
	}
	return a.done(a.session.UpdatePin(ctx, pin), "PIN updated.")
}

func (a *App) Limit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage(fmt.Sprintf("limit <%d-%d>", models.MinDailyLimit, models.MaxDailyLimit))
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return a.usage(fmt.Sprintf("limit <%d-%d>", models.MinDailyLimit, models.MaxDailyLimit))
	}
	return a.done(a.session.UpdateDailyLimit(ctx, n), fmt.Sprintf("Daily goal limit set to %d.", n))
}

func (a *App) Toggle(ctx context.Context) error {
	if err := a.session.ToggleEnabled(ctx); err != nil {
		a.report()
		return err
	}
	p := a.session.State().Policy
	if p != nil {
		fmt.Fprintf(a.out, "Parent control is now %s.\n", onOff(p.Enabled))
	}
	return nil
}

// Allow replaces the allow-list. "allow none" clears it.
func (a *App) Allow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage("allow <reward-id>... | allow none")
	}

	var ids []uuid.UUID
	if !(len(args) == 1 && args[0] == "none") {
		for _, s := range args {
			id, err := uuid.Parse(s)
			if err != nil {
				fmt.Fprintf(a.out, "Invalid reward id %q.\n", s)
				return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
			}
			ids = append(ids, id)
		}
	}

	err := a.session.UpdateAllowedRewards(ctx, ids)
	if err != nil {
		a.report()
		return err
	}
	if p := a.session.State().Policy; p != nil {
		fmt.Fprintf(a.out, "%d reward(s) allowed.\n", p.AllowedRewards.Len())
	}
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	ok, err := a.confirm(ctx, "Reset parent control to defaults (PIN becomes " + models.DefaultPin + ")?")
	if err != nil || !ok {
		return err
	}
	return a.done(a.session.ResetPolicy(ctx), "Parent control reset.")
}

func (a *App) Grant(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("grant " + permissionNames())
	}
	kind, ok := models.ParsePermission(args[0])
	if !ok {
		return a.usage("grant " + permissionNames())
	}

	if _, err := a.privacy.RequestPermission(ctx, kind); err != nil {
		fmt.Fprintln(a.out, common.UserMessage(err))
		return err
	}
	fmt.Fprintf(a.out, "Permission %s granted.\n", kind)
	return nil
}

func permissionNames() string {
	names := make([]string, 0, len(models.AllPermissions))
	for _, p := range models.AllPermissions {
		names = append(names, string(p))
	}
	return "<" + strings.Join(names, "|") + ">"
}

func (a *App) AcceptPrivacy(ctx context.Context) error {
	if err := a.privacy.AcceptPrivacyPolicy(ctx); err != nil {
		fmt.Fprintln(a.out, common.UserMessage(err))
		return err
	}
	fmt.Fprintln(a.out, "Privacy policy accepted.")
	return nil
}

func (a *App) Permissions(context.Context) error {
	for _, p := range models.AllPermissions {
		state := "not requested"
		if a.privacy.IsGranted(p) {
			state = "granted"
		}
		fmt.Fprintf(a.out, "%-14s %s\n", p, state)
	}
	return nil
}

func (a *App) CheckReward(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("check-reward <reward-id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return a.usage("check-reward <reward-id>")
	}
	if err := a.engine.CheckReward(ctx, id); err != nil {
		fmt.Fprintln(a.out, common.UserMessage(err))
		return err
	}
	fmt.Fprintln(a.out, "Reward allowed.")
	return nil
}

func (a *App) CheckLimit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("check-limit <goals-approved-today>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return a.usage("check-limit <goals-approved-today>")
	}
	if err := a.engine.CheckDailyLimit(ctx, n); err != nil {
		fmt.Fprintln(a.out, common.UserMessage(err))
		return err
	}
	fmt.Fprintln(a.out, "Another goal can be approved today.")
	return nil
}

func (a *App) Lock(context.Context) error {
	a.session.Lock()
	fmt.Fprintln(a.out, "Locked.")
	return nil
}

// done reports err through the session message slot, or prints ok.
func (a *App) done(err error, ok string) error {
	if err != nil {
		a.report()
		return err
	}
	fmt.Fprintln(a.out, ok)
	return nil
}
