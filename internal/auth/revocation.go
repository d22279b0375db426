package auth

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Revocations holds revoked token IDs until the tokens expire.
type Revocations struct {
	cache *ttlcache.Cache[string, struct{}]
}

// NewRevocations starts the expiry loop, which stops when ctx is done.
func NewRevocations(ctx context.Context) *Revocations {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)

	go cache.Start()

	go func() {
		<-ctx.Done()
		cache.Stop()
	}()

	return &Revocations{cache: cache}
}

// Revoke records tokenID as revoked until expiresAt. Tokens that have
// already expired are not recorded.
func (r *Revocations) Revoke(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.Set(tokenID, struct{}{}, ttl)
}

// IsRevoked reports whether tokenID has been revoked.
func (r *Revocations) IsRevoked(tokenID string) bool {
	return r.cache.Has(tokenID)
}

// Len returns the number of revocations currently held.
func (r *Revocations) Len() int {
	return r.cache.Len()
}
