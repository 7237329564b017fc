// Package revocation remembers token ids that must no longer be accepted:
// session tokens revoked by logout and reset tokens that were already used.
// Entries live only until the token's own expiry.
package revocation

import (
	"context"
	"time"
)

type Store interface {
	// Revoke marks jti as unusable until the given time.
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Consume atomically records jti and reports whether this was its first use.
	Consume(ctx context.Context, jti string, until time.Time) (bool, error)
	// Release forgets jti so a consumed token can be used again.
	Release(ctx context.Context, jti string) error
}
