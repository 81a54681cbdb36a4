// Package vault is the credential store: at most one secret per tag, sealed
// with a device-bound key and kept in a database of its own. It deliberately
// has no way to enumerate its contents.
package vault

import "context"

type Repository interface {
	// Store replaces whatever is held under tag.
	Store(ctx context.Context, tag string, secret []byte) error
	// Load returns (nil, nil) when tag holds nothing.
	Load(ctx context.Context, tag string) ([]byte, error)
	// Delete empties tag. Deleting an empty tag is not an error.
	Delete(ctx context.Context, tag string) error
}
