package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/instance"
)

const (
	lockScope      = "unit-sale"
	defaultLockTTL = 2 * time.Minute
)

// ErrLockNotObtained means another run holds the unit.
var ErrLockNotObtained = errors.New("unit sale already in progress")

// Lease is a held unit lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker serializes runs on the same unit.
type Locker interface {
	Acquire(ctx context.Context, unitID uuid.UUID) (Lease, error)
}

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

type lockKeyer interface {
	LockKey(scope, id string) string
}

// RedisLocker implements Locker with bsm/redislock.
type RedisLocker struct {
	client obtainer
	keys   lockKeyer
	ttl    time.Duration
	owner  string
}

// NewRedisLocker constructs a Redis-backed unit locker.
func NewRedisLocker(client obtainer, keys lockKeyer, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis lock client required")
	}
	if keys == nil {
		return nil, errors.New("lock key builder required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, keys: keys, ttl: ttl, owner: instance.GetID()}, nil
}

// Acquire takes the unit lock without retrying.
func (l *RedisLocker) Acquire(ctx context.Context, unitID uuid.UUID) (Lease, error) {
	key := l.keys.LockKey(lockScope, unitID.String())
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{Metadata: l.owner})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockNotObtained
		}
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	return lock, nil
}
