package guard

import (
	"context"
	"sync"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
)

// IdempotencyGuard deduplicates ingest requests by Idempotency-Key for ttl.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewIdempotencyGuard creates an in-memory idempotency guard remembering keys for ttl.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Check records key and reports whether it was already seen within the ttl.
// An empty key is always allowed.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	now := ig.now()
	if at, ok := ig.seen[key]; ok && now.Sub(at) < ig.ttl {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "duplicate request: idempotency key already processed",
			Guard:   "idempotency",
		}
	}

	ig.seen[key] = now
	if len(ig.seen) > 10_000 {
		for k, at := range ig.seen {
			if now.Sub(at) >= ig.ttl {
				delete(ig.seen, k)
			}
		}
	}
	return domain.GuardResult{Allowed: true}
}

// Remove forgets a key so a failed request can be retried.
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}
