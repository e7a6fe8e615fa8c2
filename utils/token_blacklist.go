package utils

import (
	"context"
	"sync"
	"time"
)

var (
	// revoked maps a token ID to its natural expiry; used when Redis is not configured.
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// RevokeToken marks the token ID as logged out until expiresAt.
func RevokeToken(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "jwt:revoked:"+tokenID, "1", ttl).Err(); err != nil {
			Sugar.Warnw("token revoke failed", "err", err)
		}
		return
	}
	revokedMu.Lock()
	now := time.Now()
	for id, exp := range revoked {
		if now.After(exp) {
			delete(revoked, id)
		}
	}
	revoked[tokenID] = expiresAt
	revokedMu.Unlock()
}

// IsTokenRevoked reports whether the token ID was logged out before its natural expiration.
func IsTokenRevoked(tokenID string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, "jwt:revoked:"+tokenID).Result()
		if err != nil {
			// fail-open to avoid locking every user out while Redis is down
			return false
		}
		return n > 0
	}
	revokedMu.RLock()
	exp, ok := revoked[tokenID]
	revokedMu.RUnlock()
	return ok && time.Now().Before(exp)
}
