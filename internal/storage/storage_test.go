package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/config"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/migrations"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/repositories/parentcontrol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = filepath.Join(dir, "data", "app.db")
	cfg.VaultDSN = filepath.Join(dir, "data", "vault.db")
	cfg.DeviceKeyPath = filepath.Join(dir, "data", "device.key")
	return cfg
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n))
	return n == 1
}

func TestOpenDatabase_AppliesMigrations(t *testing.T) {
	log := logging.NewDiscardLogger()
	ctx := context.Background()

	app, err := OpenDatabase(ctx, ":memory:", migrations.App, "app", log)
	require.NoError(t, err)
	defer app.Close()
	assert.True(t, tableExists(t, app, "settings"))
	assert.False(t, tableExists(t, app, "secrets"), "secrets must not live in the app database")

	v, err := OpenDatabase(ctx, ":memory:", migrations.Vault, "vault", log)
	require.NoError(t, err)
	defer v.Close()
	assert.True(t, tableExists(t, v, "secrets"))
	assert.True(t, tableExists(t, v, "vault_meta"))
}

func TestOpen_PersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	log := logging.NewDiscardLogger()
	ctx := context.Background()

	s, err := Open(ctx, cfg, log)
	require.NoError(t, err)

	p, err := s.ParentControl.Fetch(ctx)
	require.NoError(t, err)
	p.Pin = "8642"
	p.DailyLimit = 12
	require.NoError(t, s.ParentControl.Save(ctx, p))
	require.NoError(t, s.Close())

	_, err = os.Stat(cfg.DeviceKeyPath)
	require.NoError(t, err)

	s2, err := Open(ctx, cfg, log)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ParentControl.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "8642", got.Pin)
	assert.Equal(t, 12, got.DailyLimit)

	raw, err := s2.Settings.Get(ctx, parentcontrol.PolicyKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "8642")
}

func TestOpen_LostDeviceKeyIsStorageReadError(t *testing.T) {
	cfg := testConfig(t)
	log := logging.NewDiscardLogger()
	ctx := context.Background()

	s, err := Open(ctx, cfg, log)
	require.NoError(t, err)
	p := models.DefaultControlPolicy(time.Now())
	p.Pin = "1111"
	require.NoError(t, s.ParentControl.Save(ctx, p))
	require.NoError(t, s.Close())

	require.NoError(t, os.Remove(cfg.DeviceKeyPath))

	s2, err := Open(ctx, cfg, log)
	require.NoError(t, err)
	defer s2.Close()

	_, err = s2.ParentControl.Fetch(ctx)
	require.ErrorIs(t, err, common.ErrStorageRead, "a vault sealed with another key must not silently yield a default PIN")
}
