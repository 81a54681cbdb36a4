// Package cryptox wraps the primitives protecting the credential vault:
// argon2id key derivation and AES-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of derived keys (AES-256).
const KeySize = 32

// SaltSize is the length of freshly generated salts.
const SaltSize = 16

var ErrKeySize = errors.New("key must be 32 bytes")

// DeriveMasterKey stretches secret with salt into a KeySize key using
// argon2id (1 pass, 64 MiB, 4 lanes).
func DeriveMasterKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, KeySize)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Seal encrypts plaintext with AES-256-GCM under key. A fresh nonce is
// generated for every call and returned next to the ciphertext. aad is
// authenticated but not encrypted; pass the record tag so a ciphertext cannot
// be moved to another tag.
func Seal(key, plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// Open reverses Seal. It fails if the key, nonce, aad or ciphertext differ
// from what was sealed.
func Open(key, ciphertext, nonce, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, errors.New("invalid nonce size")
	}
	return aesgcm.Open(nil, nonce, ciphertext, aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
