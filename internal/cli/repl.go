package cli

import (
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isAuthenticated() bool
	Status(ctx context.Context) error
	Unlock(ctx context.Context) error
	Biometric(ctx context.Context) error
	SetPin(ctx context.Context) error
	Limit(ctx context.Context, args []string) error
	Toggle(ctx context.Context) error
	Allow(ctx context.Context, args []string) error
	Reset(ctx context.Context) error
	Grant(ctx context.Context, args []string) error
	AcceptPrivacy(ctx context.Context) error
	Permissions(ctx context.Context) error
	CheckReward(ctx context.Context, args []string) error
	CheckLimit(ctx context.Context, args []string) error
	Lock(ctx context.Context) error
}

// protected commands change the policy and need an unlocked session.
var protected = map[string]bool{
	"setpin": true,
	"limit":  true,
	"toggle": true,
	"allow":  true,
	"reset":  true,
}

const (
	helpLocked   = "Available commands: status, unlock, biometric, grant, accept-privacy, permissions, check-reward, check-limit, help, exit"
	helpUnlocked = "Available commands: status, setpin, limit, toggle, allow, reset, lock, grant, accept-privacy, permissions, check-reward, check-limit, help, exit"
)

// runREPL reads commands with next until it fails, ctx is done, or the user
// types exit/quit. Handler errors are already reported by the handlers.
func runREPL(ctx context.Context, a execIface, statusFn func() string, next func(context.Context) (string, error)) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("gg %s> ", statusFn()))
		line, err := next(ctx)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if protected[cmd] && !a.isAuthenticated() {
			printlnFn("Locked. Use 'unlock' or 'biometric' first.")
			continue
		}

		switch cmd {
		case "help":
			if a.isAuthenticated() {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpLocked)
			}
		case "status":
			_ = a.Status(ctx)
		case "unlock":
			_ = a.Unlock(ctx)
		case "biometric":
			_ = a.Biometric(ctx)
		case "setpin":
			_ = a.SetPin(ctx)
		case "limit":
			_ = a.Limit(ctx, args)
		case "toggle":
			_ = a.Toggle(ctx)
		case "allow":
			_ = a.Allow(ctx, args)
		case "reset":
			_ = a.Reset(ctx)
		case "grant":
			_ = a.Grant(ctx, args)
		case "accept-privacy":
			_ = a.AcceptPrivacy(ctx)
		case "permissions":
			_ = a.Permissions(ctx)
		case "check-reward":
			_ = a.CheckReward(ctx, args)
		case "check-limit":
			_ = a.CheckLimit(ctx, args)
		case "lock":
			_ = a.Lock(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
