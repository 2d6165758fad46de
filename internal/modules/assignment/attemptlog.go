// README: Attempt log backed by Redis; throttles repeat auto-assign attempts
// when sweeps overlap.
package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sweeply/internal/types"
)

// AttemptLog records auto-assign attempts per booking so a booking attempted
// moments ago by a concurrent sweep is skipped instead of re-filtered. This
// is an optimization only: correctness comes from the conditional assignment
// write.
type AttemptLog interface {
	// TryBegin marks an attempt and returns true, or returns false when the
	// booking is still inside a previous attempt's cooldown window.
	TryBegin(ctx context.Context, bookingID types.ID, cooldown time.Duration) (bool, error)
}

const attemptKeyPrefix = "assign:booking:%s:attempted_at"

type RedisAttemptLog struct {
	redis *redis.Client
}

func NewRedisAttemptLog(client *redis.Client) *RedisAttemptLog {
	return &RedisAttemptLog{redis: client}
}

func (l *RedisAttemptLog) TryBegin(ctx context.Context, bookingID types.ID, cooldown time.Duration) (bool, error) {
	key := fmt.Sprintf(attemptKeyPrefix, string(bookingID))
	return l.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
}

// MemAttemptLog backs tests.
type MemAttemptLog struct {
	mu       sync.Mutex
	attempts map[types.ID]time.Time
}

func NewMemAttemptLog() *MemAttemptLog {
	return &MemAttemptLog{attempts: make(map[types.ID]time.Time)}
}

func (l *MemAttemptLog) TryBegin(_ context.Context, bookingID types.ID, cooldown time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if at, ok := l.attempts[bookingID]; ok && now.Sub(at) < cooldown {
		return false, nil
	}
	l.attempts[bookingID] = now
	return true, nil
}
