package device

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/repositories/settings"
)

// NotificationsAuthorizedKey stores the console's own authorization answer,
// standing in for the OS-level setting.
const NotificationsAuthorizedKey = "device_notifications_authorized"

const notificationQuestion = "Allow GophGuard to send notifications?"

// AskFunc asks a yes/no question and blocks until it is answered.
type AskFunc func(ctx context.Context, question string) (bool, error)

type ConsoleNotifications struct {
	store  settings.Repository
	ask    AskFunc
	logger logging.Logger
}

func NewConsoleNotifications(store settings.Repository, ask AskFunc, logger logging.Logger) *ConsoleNotifications {
	return &ConsoleNotifications{store: store, ask: ask, logger: logger.With("component", "notifications")}
}

func (n *ConsoleNotifications) Authorized(ctx context.Context) (bool, error) {
	v, err := n.store.Get(ctx, NotificationsAuthorizedKey)
	if err != nil {
		return false, err
	}
	return string(v) == "true", nil
}

// RequestAuthorization asks on a separate goroutine and replies from there.
func (n *ConsoleNotifications) RequestAuthorization(ctx context.Context, reply func(granted bool, err error)) {
	go func() {
		ok, err := n.ask(ctx, notificationQuestion)
		if err != nil {
			reply(false, fmt.Errorf("ask: %w", err))
			return
		}
		// an answer given after the request gave up is not remembered
		if err := ctx.Err(); err != nil {
			reply(false, err)
			return
		}
		if ok {
			if err := n.store.Set(ctx, NotificationsAuthorizedKey, []byte("true")); err != nil {
				n.logger.Error(ctx, "failed to remember notification authorization", "error", err)
				reply(false, err)
				return
			}
		}
		n.logger.Info(ctx, "notification prompt answered", "granted", ok)
		reply(ok, nil)
	}()
}
