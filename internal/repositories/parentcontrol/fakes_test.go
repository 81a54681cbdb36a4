package parentcontrol

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophguard/internal/repositories/settings"
	"github.com/dmitrijs2005/gophguard/internal/repositories/vault"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeSettings is an in-memory settings.Repository with injectable errors.
type fakeSettings struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	getCall int
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{data: map[string][]byte{}}
}

func (f *fakeSettings) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCall++
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (f *fakeSettings) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeSettings) SetMany(ctx context.Context, values map[string][]byte) error {
	for k, v := range values {
		if err := f.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// fakeVault is an in-memory vault.Repository with injectable errors.
type fakeVault struct {
	mu       sync.Mutex
	secrets  map[string][]byte
	loadErr   error
	storeErr  error
	deleteErr error
}

func newFakeVault() *fakeVault {
	return &fakeVault{secrets: map[string][]byte{}}
}

func (f *fakeVault) Store(_ context.Context, tag string, secret []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return f.storeErr
	}
	f.secrets[tag] = append([]byte(nil), secret...)
	return nil
}

func (f *fakeVault) Load(_ context.Context, tag string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	v, ok := f.secrets[tag]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (f *fakeVault) Delete(_ context.Context, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.secrets, tag)
	return nil
}

func openMemDB(t *testing.T, schema string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

// sqliteStores returns real stores backed by two separate in-memory databases,
// plus the application database itself.
func sqliteStores(t *testing.T) (*settings.SQLiteRepository, *vault.SQLiteRepository, *sql.DB) {
	t.Helper()
	appDB := openMemDB(t, `CREATE TABLE settings (
  key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP);`)
	vaultDB := openMemDB(t, `
CREATE TABLE vault_meta (key TEXT PRIMARY KEY, value BLOB NOT NULL);
CREATE TABLE secrets (tag TEXT PRIMARY KEY, ciphertext BLOB NOT NULL, nonce BLOB NOT NULL);`)

	v, err := vault.NewSQLiteRepository(context.Background(), vaultDB, []byte("test-device"))
	require.NoError(t, err)
	return settings.NewSQLiteRepository(appDB), v, appDB
}
