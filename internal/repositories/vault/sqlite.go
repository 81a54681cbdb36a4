package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/cryptox"
	"github.com/dmitrijs2005/gophguard/internal/dbx"
)

const saltKey = "kdf_salt"

type SQLiteRepository struct {
	db  *sql.DB
	key []byte
}

// NewSQLiteRepository derives the vault key from deviceSecret and the salt
// kept in vault_meta, creating the salt on first use.
func NewSQLiteRepository(ctx context.Context, db *sql.DB, deviceSecret []byte) (*SQLiteRepository, error) {
	salt, err := loadOrCreateSalt(ctx, db)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db, key: cryptox.DeriveMasterKey(deviceSecret, salt)}, nil
}

func loadOrCreateSalt(ctx context.Context, db *sql.DB) ([]byte, error) {
	var salt []byte
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx, `SELECT value FROM vault_meta WHERE key = ?`, saltKey).Scan(&salt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		salt = cryptox.NewSalt()
		_, err = tx.ExecContext(ctx, `INSERT INTO vault_meta (key, value) VALUES (?, ?)`, saltKey, salt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load vault salt: %w", err)
	}
	return salt, nil
}

// Store deletes any existing entry for tag and inserts the new one in a
// single transaction, so a tag never holds two rows.
func (r *SQLiteRepository) Store(ctx context.Context, tag string, secret []byte) error {
	ciphertext, nonce, err := cryptox.Seal(r.key, secret, []byte(tag))
	if err != nil {
		return fmt.Errorf("failed to seal secret[%s]: %w", tag, err)
	}

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM secrets WHERE tag = ?`, tag); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO secrets (tag, ciphertext, nonce) VALUES (?, ?, ?)`, tag, ciphertext, nonce)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store secret[%s]: %w", tag, err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, tag string) ([]byte, error) {
	var ciphertext, nonce []byte
	err := r.db.QueryRowContext(ctx, `SELECT ciphertext, nonce FROM secrets WHERE tag = ?`, tag).Scan(&ciphertext, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load secret[%s]: %w", tag, err)
	}

	secret, err := cryptox.Open(r.key, ciphertext, nonce, []byte(tag))
	if err != nil {
		return nil, fmt.Errorf("failed to open secret[%s]: %w", tag, err)
	}
	return secret, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, tag string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE tag = ?`, tag); err != nil {
		return fmt.Errorf("failed to delete secret[%s]: %w", tag, err)
	}
	return nil
}

// Close wipes the derived key. The database handle is owned by the caller.
func (r *SQLiteRepository) Close() {
	common.WipeByteArray(r.key)
}
