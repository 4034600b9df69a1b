// Package ratelimit provides per-client admission control for the intake
// endpoints: a fixed window capping requests per client IP, plus cooldowns
// suppressing repeats of the same (ip, email) and (ip, message) pairs.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Limiter admits or rejects one submission attempt. Implementations must be
// safe for concurrent use; the whole check-then-count step is atomic.
type Limiter interface {
	Admit(ctx context.Context, clientIP, email, message string) (bool, error)
}

// Config tunes one limiter instance. The contact and recruit flows run two
// separately configured instances; they are never shared.
type Config struct {
	Window          time.Duration
	MaxRequests     int
	EmailCooldown   time.Duration
	MessageCooldown time.Duration

	// SweepInterval bounds how often the in-memory store scans for lapsed
	// entries. Zero disables eviction.
	SweepInterval time.Duration
}

// digest keys message bodies by content without retaining them.
func digest(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}
