package privacy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/migrations"
	"github.com/dmitrijs2005/gophguard/internal/repositories/settings"
	"github.com/dmitrijs2005/gophguard/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	mu         sync.Mutex
	canErr     error
	ok         bool
	reason     string
	silent     bool          // never replies
	twice      bool          // replies ok, then a contradicting second reply
	hold       chan struct{} // when set, replies wait until it is closed
	prompts    int
	lastPrompt string
}

func (f *fakeAuthenticator) CanEvaluate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canErr
}

func (f *fakeAuthenticator) Evaluate(_ context.Context, prompt string, reply func(bool, string)) {
	f.mu.Lock()
	f.prompts++
	f.lastPrompt = prompt
	ok, reason, silent, twice, hold := f.ok, f.reason, f.silent, f.twice, f.hold
	f.mu.Unlock()

	if silent {
		return
	}
	go func() {
		if hold != nil {
			<-hold
		}
		reply(ok, reason)
		if twice {
			reply(!ok, "second answer")
		}
	}()
}

func (f *fakeAuthenticator) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts
}

type fakeNotifications struct {
	mu         sync.Mutex
	authorized bool
	statusErr  error
	grant      bool
	replyErr   error
	silent     bool
	requests   int
}

func (f *fakeNotifications) Authorized(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized, f.statusErr
}

func (f *fakeNotifications) RequestAuthorization(_ context.Context, reply func(bool, error)) {
	f.mu.Lock()
	f.requests++
	grant, err, silent := f.grant, f.replyErr, f.silent
	f.mu.Unlock()

	if silent {
		return
	}
	go reply(grant, err)
}

// brokenSettings fails every write.
type brokenSettings struct {
	settings.Repository
}

var errDiskFull = errors.New("disk full")

func (brokenSettings) Set(context.Context, string, []byte) error { return errDiskFull }
func (brokenSettings) SetMany(context.Context, map[string][]byte) error { return errDiskFull }

func newSettings(t *testing.T) settings.Repository {
	t.Helper()
	db, err := storage.OpenDatabase(context.Background(), ":memory:", migrations.App, "app", logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return settings.NewSQLiteRepository(db)
}
