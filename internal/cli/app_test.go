package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/config"
	"github.com/dmitrijs2005/gophguard/internal/device"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = filepath.Join(dir, "app.db")
	cfg.VaultDSN = filepath.Join(dir, "vault.db")
	cfg.DeviceKeyPath = filepath.Join(dir, "device.key")
	cfg.PinCooldown = 0
	cfg.PromptTimeout = time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, input ...string) (*App, *bytes.Buffer) {
	t.Helper()
	stubTerminal(t, false, "", nil)

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(input, "\n") + "\n")
	a, err := newApp(context.Background(), cfg, logging.NewDiscardLogger(), in, &out)
	require.NoError(t, err)
	return a, &out
}

func closeApp(t *testing.T, a *App) {
	t.Helper()
	require.NoError(t, a.storage.Close())
}

func TestApp_UnlockAndChangeLimit(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)
	ctx := context.Background()

	a, out := newTestApp(t, cfg,
		"unlock", "0000",
		"unlock", models.DefaultPin,
		"limit 7",
		"toggle",
		"check-limit 7",
		"exit",
	)
	runREPL(ctx, a, a.getStatus, a.nextLine)
	closeApp(t, a)

	text := out.String()
	assert.Contains(t, text, "Invalid PIN code. 2 attempts remaining.")
	assert.Contains(t, text, "Unlocked.")
	assert.Contains(t, text, "Daily goal limit set to 7.")
	assert.Contains(t, text, "Parent control is now on.")
	assert.Contains(t, text, "You've reached your daily goal limit.")

	// state survives a restart
	b, out := newTestApp(t, cfg, "status", "exit")
	defer closeApp(t, b)
	runREPL(ctx, b, b.getStatus, b.nextLine)
	assert.Contains(t, out.String(), "Daily goal limit: 7")
	assert.Contains(t, out.String(), "Parent control: on")
	assert.False(t, b.isAuthenticated())
}

func TestApp_SetPin(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)
	ctx := context.Background()

	a, out := newTestApp(t, cfg,
		"unlock", models.DefaultPin,
		"setpin", "5678", "5679",
		"setpin", "12", "12",
		"setpin", "5678", "5678",
		"lock",
		"unlock", "5678",
		"exit",
	)
	defer closeApp(t, a)
	runREPL(ctx, a, a.getStatus, a.nextLine)

	text := out.String()
	assert.Contains(t, text, "PINs do not match.")
	assert.Contains(t, text, "Invalid value: PIN code must be 4 digits")
	assert.Contains(t, text, "PIN updated.")
	assert.True(t, a.isAuthenticated())
}

func TestApp_AllowAndCheckReward(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)
	ctx := context.Background()
	allowed, other := uuid.New(), uuid.New()

	a, out := newTestApp(t, cfg,
		"unlock", models.DefaultPin,
		"allow "+allowed.String()+" "+allowed.String(),
		"allow not-a-uuid",
		"toggle",
		"check-reward "+allowed.String(),
		"check-reward "+other.String(),
		"exit",
	)
	defer closeApp(t, a)
	runREPL(ctx, a, a.getStatus, a.nextLine)

	text := out.String()
	assert.Contains(t, text, "1 reward(s) allowed.")
	assert.Contains(t, text, `Invalid reward id "not-a-uuid".`)
	assert.Contains(t, text, "Reward allowed.")
	assert.Contains(t, text, "This reward is not allowed by your parents.")
}

func TestApp_ResetNeedsConfirmation(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)
	ctx := context.Background()

	a, out := newTestApp(t, cfg,
		"unlock", models.DefaultPin,
		"limit 12",
		"reset", "n",
		"status",
		"reset", "y",
		"status",
		"exit",
	)
	defer closeApp(t, a)
	runREPL(ctx, a, a.getStatus, a.nextLine)

	text := out.String()
	assert.Contains(t, text, "Daily goal limit: 12")
	assert.Contains(t, text, "Parent control reset.")
	assert.Contains(t, text, "Daily goal limit: 5")
}

func TestApp_PermissionsFlow(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)
	ctx := context.Background()

	a, out := newTestApp(t, cfg,
		"biometric",
		"grant notifications", "y",
		"grant location",
		"grant camera",
		"accept-privacy",
		"permissions",
		"exit",
	)
	runREPL(ctx, a, a.getStatus, a.nextLine)
	a.privacy.OnTerminate(ctx)
	closeApp(t, a)

	text := out.String()
	assert.Contains(t, text, "Biometrics not available: this device has no biometric sensor")
	assert.Contains(t, text, "Permission notifications granted.")
	assert.Contains(t, text, "Permission location granted.")
	assert.Contains(t, text, "Usage: grant <biometric|notifications|analytics|location>")
	assert.Contains(t, text, "Privacy policy accepted.")
	assert.False(t, a.isAuthenticated())

	// a fresh process restores the grants without prompting again
	b, _ := newTestApp(t, cfg, "exit")
	defer closeApp(t, b)
	require.NoError(t, b.privacy.RestoreState(ctx))
	assert.True(t, b.privacy.IsGranted(models.PermissionNotifications))
	assert.True(t, b.privacy.IsGranted(models.PermissionLocation))
	assert.True(t, b.privacy.PrivacyPolicyAccepted())
}

func TestApp_Run(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)

	a, out := newTestApp(t, cfg, "status", "exit")

	finished := make(chan struct{})
	go func() {
		a.Run(context.Background())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Contains(t, out.String(), "Welcome to GophGuard")
	assert.Contains(t, out.String(), "Parent control: off")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)

	// no exit command: the REPL ends on EOF, cancellation ends Run either way
	a, _ := newTestApp(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestApp_ForegroundPicksUpOtherProcessWrites(t *testing.T) {
	capturePrintln(t)
	cfg := testConfig(t)
	ctx := context.Background()

	a, _ := newTestApp(t, cfg)
	defer closeApp(t, a)
	b, _ := newTestApp(t, cfg)
	defer closeApp(t, b)

	p, err := a.engine.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDailyLimit, p.DailyLimit)

	require.NoError(t, b.engine.UpdateDailyLimit(ctx, 8))

	// still served from the cache
	p, err = a.engine.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDailyLimit, p.DailyLimit)

	require.NoError(t, a.onForeground(ctx))
	p, err = a.engine.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, p.DailyLimit)
}

func TestIsForeground(t *testing.T) {
	assert.False(t, isForeground(os.Interrupt))
	for _, s := range foregroundSignals {
		assert.True(t, isForeground(s))
	}
}

func TestApp_TimedOutPromptLeavesNextLineToREPL(t *testing.T) {
	stubTerminal(t, false, "", nil)
	cfg := testConfig(t)
	cfg.PromptTimeout = 100 * time.Millisecond
	ctx := context.Background()

	pr, pw := io.Pipe()
	defer pw.Close()
	a, err := newApp(ctx, cfg, logging.NewDiscardLogger(), pr, io.Discard)
	require.NoError(t, err)
	defer closeApp(t, a)

	granted, err := a.privacy.RequestPermission(ctx, models.PermissionNotifications)
	require.ErrorIs(t, err, common.ErrNotificationDenied)
	assert.False(t, granted)

	go func() { _, _ = pw.Write([]byte("y\nstatus\n")) }()

	line, err := a.nextLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "y", line)
	line, err = a.nextLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "status", line)

	v, err := a.storage.Settings.Get(ctx, device.NotificationsAuthorizedKey)
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.False(t, a.privacy.IsGranted(models.PermissionNotifications))
}
