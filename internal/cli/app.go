package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophguard/internal/config"
	"github.com/dmitrijs2005/gophguard/internal/device"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/privacy"
	"github.com/dmitrijs2005/gophguard/internal/services/parentcontrol"
	"github.com/dmitrijs2005/gophguard/internal/session"
	"github.com/dmitrijs2005/gophguard/internal/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *storage.Storage
	engine  parentcontrol.Service
	privacy *privacy.Manager
	session *session.Controller

	// in is shared by the REPL and background prompts.
	in  *lineReader
	out io.Writer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	return newApp(ctx, c, logger, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	st, err := storage.Open(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	a := &App{
		config:  c,
		logger:  logger,
		storage: st,
		in:      newLineReader(in),
		out:     out,
	}

	a.engine = parentcontrol.NewService(st.ParentControl, logger,
		parentcontrol.WithCooldown(c.PinCooldown))

	notifications := device.NewConsoleNotifications(st.Settings, a.ask, logger)
	a.privacy = privacy.NewManager(st.Settings, device.NoBiometrics{}, notifications, logger,
		privacy.WithPromptTimeout(c.PromptTimeout))

	a.session = session.NewController(a.engine, a.privacy, logger,
		session.WithMaxAttempts(c.MaxAttempts),
		session.WithLockoutReset(c.LockoutReset))

	return a, nil
}

// ask is the console notification prompt. It may run on a background
// goroutine while the REPL waits for the permission request to finish; once
// ctx is done it stops waiting and leaves the input to the REPL.
func (a *App) ask(ctx context.Context, question string) (bool, error) {
	return Confirm(ctx, a.in, question, a.out)
}

func (a *App) nextLine(ctx context.Context) (string, error) {
	return a.in.ReadLine(ctx)
}

func (a *App) promptPin(ctx context.Context, text string) (string, error) {
	return GetPin(ctx, a.in, text, a.out)
}

func (a *App) confirm(ctx context.Context, question string) (bool, error) {
	return Confirm(ctx, a.in, question, a.out)
}

func (a *App) isAuthenticated() bool {
	return a.session.State().Authenticated
}

func (a *App) getStatus() string {
	s := a.session.State()
	switch {
	case s.Authenticated:
		return "(unlocked)"
	case s.Locked:
		return "(locked out)"
	default:
		return "(locked)"
	}
}

// initSignalHandler cancels on SIGINT/SIGTERM and re-checks permissions on
// a foreground signal. The returned func stops signal delivery.
func (a *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, append([]os.Signal{syscall.SIGINT, syscall.SIGTERM}, foregroundSignals...)...)

	go func() {
		for {
			select {
			case sig := <-sigs:
				if isForeground(sig) {
					if err := a.onForeground(ctx); err != nil {
						a.logger.Error(ctx, "foreground revalidation failed", "error", err)
					}
					continue
				}
				a.logger.Info(ctx, "received signal, shutting down", "signal", sig.String())
				cancelFunc()
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() { signal.Stop(sigs) }
}

// onForeground forgets the cached policy, which another process may have
// changed while this one was stopped, and re-checks permissions.
func (a *App) onForeground(ctx context.Context) error {
	a.storage.ParentControl.Invalidate()
	return a.privacy.OnForeground(ctx)
}

func isForeground(sig os.Signal) bool {
	for _, s := range foregroundSignals {
		if s == sig {
			return true
		}
	}
	return false
}

// Run restores permission state, starts the lockout reset timer and blocks
// in the REPL until the user exits or a termination signal arrives.
func (a *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := a.initSignalHandler(ctx, cancelFunc)
	defer stop()

	defer func() {
		if err := a.storage.Close(); err != nil {
			a.logger.Error(ctx, "failed to close storage", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "Welcome to GophGuard parent controls (type 'help' for commands)")

	if err := a.privacy.RestoreState(ctx); err != nil {
		fmt.Fprintln(a.out, "Could not restore permissions:", err)
	}
	if err := a.session.LoadPolicy(ctx); err != nil {
		a.report()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.session.Run(ctx)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.getStatus, a.nextLine)
	}()

	// the REPL may be stuck in a read when a signal arrives
	select {
	case <-done:
	case <-ctx.Done():
	}

	a.privacy.OnTerminate(context.WithoutCancel(ctx))
	cancelFunc()
	wg.Wait()
}
