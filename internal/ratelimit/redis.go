package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a limiter backed by Redis atomic counters, for deployments that
// run more than one replica. The window is an INCR counter with a TTL; the
// cooldowns are keys with native expiry, so nothing needs sweeping.
type Redis struct {
	client *redis.Client
	name   string
	cfg    Config
}

// NewRedis creates a Redis-backed limiter. name namespaces the keys, one
// name per flow.
func NewRedis(client *redis.Client, name string, cfg Config) *Redis {
	return &Redis{client: client, name: name, cfg: cfg}
}

func (r *Redis) Admit(ctx context.Context, clientIP, email, message string) (bool, error) {
	d := digest(message)
	emailKey := fmt.Sprintf("intake:%s:%s:email:%s", r.name, clientIP, digest(email))
	msgKey := fmt.Sprintf("intake:%s:%s:msg:%s", r.name, clientIP, d)
	countKey := fmt.Sprintf("intake:%s:%s:count", r.name, clientIP)

	exists, err := r.client.Exists(ctx, emailKey, msgKey).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: cooldown check: %w", err)
	}
	if exists > 0 {
		return false, nil
	}

	count, err := r.client.Incr(ctx, countKey).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, countKey, r.cfg.Window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	if count > int64(r.cfg.MaxRequests) {
		return false, nil
	}

	// Arm the cooldowns only after an admit so a rejected attempt does not
	// extend them.
	if err := r.client.Set(ctx, emailKey, 1, r.cfg.EmailCooldown).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: set email cooldown: %w", err)
	}
	if err := r.client.Set(ctx, msgKey, 1, r.cfg.MessageCooldown).Err(); err != nil {
		return false, fmt.Errorf("ratelimit: set message cooldown: %w", err)
	}
	return true, nil
}
