package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

const (
	paymentLockKeyPrefix = "coinpay:payment_lock:"
	// DefaultPaymentLockTTL bounds how long a crashed holder can block a payment
	DefaultPaymentLockTTL = 2 * time.Minute
)

// releaseScript deletes the lock only while it still carries the holder's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPaymentLocker provides per-payment mutual exclusion shared by every process using the same Redis
type RedisPaymentLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

func NewRedisPaymentLocker(client *redis.Client, ttl time.Duration, logger logger.Interface) *RedisPaymentLocker {
	if ttl <= 0 {
		ttl = DefaultPaymentLockTTL
	}
	return &RedisPaymentLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// buildKey builds the lock key
// Format: coinpay:payment_lock:{payment_id}
func (l *RedisPaymentLocker) buildKey(paymentID uint) string {
	return fmt.Sprintf("%s%d", paymentLockKeyPrefix, paymentID)
}

// TryLock sets the lock key with NX. ok is false when another holder owns it.
func (l *RedisPaymentLocker) TryLock(ctx context.Context, paymentID uint) (func(), bool, error) {
	key := l.buildKey(paymentID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			// Release even when the caller's context was cancelled mid-run
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warnw("failed to release payment lock",
					"payment_id", paymentID,
					"error", err,
				)
			}
		})
	}
	return unlock, true, nil
}

// LocalPaymentLocker is the in-process locker used when Redis is disabled
type LocalPaymentLocker struct {
	mu   sync.Mutex
	held map[uint]struct{}
}

func NewLocalPaymentLocker() *LocalPaymentLocker {
	return &LocalPaymentLocker{held: make(map[uint]struct{})}
}

func (l *LocalPaymentLocker) TryLock(_ context.Context, paymentID uint) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[paymentID]; busy {
		return nil, false, nil
	}
	l.held[paymentID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, paymentID)
			l.mu.Unlock()
		})
	}, true, nil
}
