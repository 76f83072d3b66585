package auth

import (
	"context"
	"time"

	"github.com/starbooks/monitoring-api/utils/cache"
)

const revokedKeyPrefix = "auth:revoked:"

// RevocationList remembers logged-out token ids until they would have expired
type RevocationList struct {
	cache cache.Cache
	now   func() time.Time
}

// NewRevocationList creates a revocation list backed by cache
func NewRevocationList(c cache.Cache) *RevocationList {
	return &RevocationList{cache: c, now: time.Now}
}

// RevokeToken marks jti as revoked. Already-expired tokens are ignored.
func (r *RevocationList) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, revokedKeyPrefix+jti, "1", ttl)
}

// IsTokenRevoked checks whether jti was revoked
func (r *RevocationList) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return r.cache.Exists(ctx, revokedKeyPrefix+jti)
}
