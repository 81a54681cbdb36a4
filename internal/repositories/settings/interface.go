// Package settings is the general key/value store of the application
// database. The parent control policy and the privacy state live here as
// whole JSON records; secrets never do.
package settings

import "context"

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all pairs in one transaction.
	SetMany(ctx context.Context, values map[string][]byte) error
}
