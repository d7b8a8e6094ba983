package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCooldown = time.Minute

// RecoveryThrottle allows one password recovery mail per username per
// cooldown window. Key format: recovery:<lowercased username>
type RecoveryThrottle struct {
	client   redis.Cmdable
	cooldown time.Duration
}

// NewRecoveryThrottle wraps client. A non-positive cooldown uses
// defaultCooldown.
func NewRecoveryThrottle(client redis.Cmdable, cooldown time.Duration) *RecoveryThrottle {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &RecoveryThrottle{client: client, cooldown: cooldown}
}

// Allow claims the cooldown key with SET NX. It reports false while a
// previous claim for username is still live.
func (t *RecoveryThrottle) Allow(ctx context.Context, username string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(username), time.Now().Unix(), t.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("recovery throttle: %w", err)
	}
	return ok, nil
}

func (t *RecoveryThrottle) key(username string) string {
	return "recovery:" + strings.ToLower(strings.TrimSpace(username))
}
