package privacy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/repositories/settings"
)

const (
	GrantedPermissionsKey    = "granted_permissions"
	PrivacyPolicyAcceptedKey = "privacy_policy_accepted"

	BiometricPrompt      = "Authenticate to access parent controls"
	DefaultPromptTimeout = 30 * time.Second
)

type Option func(*Manager)

// WithPromptTimeout bounds how long a single external prompt may take.
func WithPromptTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

type Manager struct {
	settings settings.Repository
	auth     Authenticator
	notif    NotificationAuthority
	logger   logging.Logger
	timeout  time.Duration

	mu       sync.RWMutex
	granted  map[models.Permission]struct{}
	accepted bool
}

func NewManager(s settings.Repository, auth Authenticator, notif NotificationAuthority,
	logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		settings: s,
		auth:     auth,
		notif:    notif,
		logger:   logger.With("component", "privacy"),
		timeout:  DefaultPromptTimeout,
		granted:  map[models.Permission]struct{}{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// RequestPermission asks the owning authority for kind and persists the
// grant on success. A denial leaves kind absent and requestable again.
func (m *Manager) RequestPermission(ctx context.Context, kind models.Permission) (bool, error) {
	m.logger.Info(ctx, "requesting permission", "permission", kind)

	if err := m.check(ctx, kind); err != nil {
		m.logger.Warn(ctx, "permission not granted", "permission", kind, "error", err)
		return false, err
	}

	m.mu.Lock()
	_, had := m.granted[kind]
	m.granted[kind] = struct{}{}
	m.mu.Unlock()

	if err := m.SaveState(ctx); err != nil {
		if !had {
			m.mu.Lock()
			delete(m.granted, kind)
			m.mu.Unlock()
		}
		return false, err
	}
	m.logger.Info(ctx, "permission granted", "permission", kind)
	return true, nil
}

// check runs the authority flow for kind without touching any state.
func (m *Manager) check(ctx context.Context, kind models.Permission) error {
	switch kind {
	case models.PermissionBiometric:
		return m.checkBiometric(ctx)
	case models.PermissionNotifications:
		return m.checkNotifications(ctx)
	case models.PermissionAnalytics, models.PermissionLocation:
		return nil
	default:
		return fmt.Errorf("%w: unknown permission %q", common.ErrInvalidInput, kind)
	}
}

func (m *Manager) checkBiometric(ctx context.Context) error {
	if err := m.auth.CanEvaluate(ctx); err != nil {
		return fmt.Errorf("%w: %s", common.ErrBiometricsUnavailable, err.Error())
	}

	type result struct {
		ok     bool
		reason string
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	p := newPromise[result]()
	m.auth.Evaluate(ctx, BiometricPrompt, func(ok bool, reason string) {
		p.resolve(result{ok, reason})
	})

	r, err := p.await(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %s", common.ErrAuthenticationFailed, err.Error())
	case !r.ok:
		reason := r.reason
		if reason == "" {
			reason = "Authentication failed"
		}
		return fmt.Errorf("%w: %s", common.ErrAuthenticationFailed, reason)
	}
	return nil
}

func (m *Manager) checkNotifications(ctx context.Context) error {
	ok, err := m.notif.Authorized(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotificationDenied, err)
	}
	if ok {
		return nil
	}

	type result struct {
		granted bool
		err     error
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	p := newPromise[result]()
	m.notif.RequestAuthorization(ctx, func(granted bool, err error) {
		p.resolve(result{granted, err})
	})

	r, err := p.await(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", common.ErrNotificationDenied, err)
	case r.err != nil:
		return fmt.Errorf("%w: %w", common.ErrNotificationDenied, r.err)
	case !r.granted:
		return common.ErrNotificationDenied
	}
	return nil
}

// RestoreState reloads the persisted grants and re-runs each through its
// authority. Grants that fail are dropped from memory only; the stored
// record catches up on the next SaveState. The in-memory state keeps its
// previous value until revalidation is over and is then replaced at once.
func (m *Manager) RestoreState(ctx context.Context) error {
	granted, accepted, err := m.load(ctx)
	if err != nil {
		m.logger.Error(ctx, "failed to restore state", "error", err)
		return err
	}

	valid := make(map[models.Permission]struct{}, len(granted))
	for _, kind := range granted {
		if err := m.check(ctx, kind); err != nil {
			m.logger.Warn(ctx, "permission revoked on revalidation", "permission", kind, "error", err)
			continue
		}
		valid[kind] = struct{}{}
	}

	m.mu.Lock()
	m.granted = valid
	m.accepted = accepted
	m.mu.Unlock()

	m.logger.Info(ctx, "state restored", "accepted", accepted, "permissions", len(valid))
	return nil
}

func (m *Manager) load(ctx context.Context) ([]models.Permission, bool, error) {
	raw, err := m.settings.Get(ctx, GrantedPermissionsKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", common.ErrStorageRead, err)
	}

	var tags []string
	if raw != nil {
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, false, fmt.Errorf("%w: decode permissions: %w", common.ErrStorageRead, err)
		}
	}

	var granted []models.Permission
	for _, t := range tags {
		if p, ok := models.ParsePermission(t); ok {
			granted = append(granted, p)
		}
	}

	rawAccepted, err := m.settings.Get(ctx, PrivacyPolicyAcceptedKey)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", common.ErrStorageRead, err)
	}
	var accepted bool
	if rawAccepted != nil {
		if err := json.Unmarshal(rawAccepted, &accepted); err != nil {
			return nil, false, fmt.Errorf("%w: decode acceptance: %w", common.ErrStorageRead, err)
		}
	}

	return granted, accepted, nil
}

func (m *Manager) AcceptPrivacyPolicy(ctx context.Context) error {
	m.mu.Lock()
	m.accepted = true
	m.mu.Unlock()

	if err := m.settings.Set(ctx, PrivacyPolicyAcceptedKey, []byte("true")); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	m.logger.Info(ctx, "privacy policy accepted")
	return nil
}

// SaveState writes grants and acceptance together.
func (m *Manager) SaveState(ctx context.Context) error {
	m.mu.RLock()
	tags := make([]string, 0, len(m.granted))
	for p := range m.granted {
		tags = append(tags, string(p))
	}
	accepted := m.accepted
	m.mu.RUnlock()

	sort.Strings(tags)

	rawTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	rawAccepted, err := json.Marshal(accepted)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}

	err = m.settings.SetMany(ctx, map[string][]byte{
		GrantedPermissionsKey:    rawTags,
		PrivacyPolicyAcceptedKey: rawAccepted,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageWrite, err)
	}
	return nil
}

// OnForeground is called whenever the app becomes active again.
func (m *Manager) OnForeground(ctx context.Context) error {
	return m.RestoreState(ctx)
}

// OnTerminate saves state on the way out. Failures are only logged.
func (m *Manager) OnTerminate(ctx context.Context) {
	if err := m.SaveState(ctx); err != nil {
		m.logger.Error(ctx, "failed to save state during termination", "error", err)
		return
	}
	m.logger.Info(ctx, "state saved on termination")
}

// Granted returns the granted permissions in AllPermissions order.
func (m *Manager) Granted() []models.Permission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Permission, 0, len(m.granted))
	for _, p := range models.AllPermissions {
		if _, ok := m.granted[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) IsGranted(kind models.Permission) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.granted[kind]
	return ok
}

func (m *Manager) PrivacyPolicyAccepted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accepted
}
