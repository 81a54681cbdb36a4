// Package storage opens the two local databases, applies their migrations and
// wires the repositories that sit on top of them.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/config"
	"github.com/dmitrijs2005/gophguard/internal/filex"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/migrations"
	"github.com/dmitrijs2005/gophguard/internal/repositories/parentcontrol"
	"github.com/dmitrijs2005/gophguard/internal/repositories/settings"
	"github.com/dmitrijs2005/gophguard/internal/repositories/vault"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const deviceKeySize = 32

type Storage struct {
	appDB   *sql.DB
	vaultDB *sql.DB
	vault   *vault.SQLiteRepository

	Settings      settings.Repository
	ParentControl parentcontrol.Repository
}

// Open prepares both databases described by cfg. The device key file is
// created on first run.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Storage, error) {
	appDB, err := OpenDatabase(ctx, cfg.DatabaseDSN, migrations.App, "app", logger)
	if err != nil {
		return nil, fmt.Errorf("app database: %w", err)
	}

	vaultDB, err := OpenDatabase(ctx, cfg.VaultDSN, migrations.Vault, "vault", logger)
	if err != nil {
		_ = appDB.Close()
		return nil, fmt.Errorf("vault database: %w", err)
	}

	deviceKey, created, err := filex.ReadOrCreate(cfg.DeviceKeyPath, func() []byte {
		return common.GenerateRandByteArray(deviceKeySize)
	})
	if err != nil {
		_ = appDB.Close()
		_ = vaultDB.Close()
		return nil, fmt.Errorf("device key: %w", err)
	}
	defer common.WipeByteArray(deviceKey)
	if created {
		logger.Info(ctx, "created device key", "path", cfg.DeviceKeyPath)
	}

	v, err := vault.NewSQLiteRepository(ctx, vaultDB, deviceKey)
	if err != nil {
		_ = appDB.Close()
		_ = vaultDB.Close()
		return nil, err
	}

	s := settings.NewSQLiteRepository(appDB)
	return &Storage{
		appDB:         appDB,
		vaultDB:       vaultDB,
		vault:         v,
		Settings:      s,
		ParentControl: parentcontrol.NewRepository(s, v, logger),
	}, nil
}

// OpenDatabase opens an SQLite database at dsn and migrates it up using the
// goose files under dir in fsys.
func OpenDatabase(ctx context.Context, dsn string, fsys fs.FS, dir string, logger logging.Logger) (*sql.DB, error) {
	if dsn != ":memory:" {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer at a time; also keeps ":memory:" on a single database
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, fsys, dir, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func RunMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, logger logging.Logger) error {
	goose.SetBaseFS(fsys)
	goose.SetLogger(&gooseLogger{l: logger.With("component", "migrations", "schema", dir)})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", dir, err)
	}
	return nil
}

func (s *Storage) Close() error {
	s.vault.Close()
	return errors.Join(s.appDB.Close(), s.vaultDB.Close())
}
