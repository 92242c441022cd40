package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "vocabpractice:wizard:"
	redisLockPrefix = "vocabpractice:wizard-lock:"

	lockTTL   = 10 * time.Second
	lockRetry = 25 * time.Millisecond
)

// releaseLock deletes the lock only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares wizard state between replicas
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to addr and checks the connection
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (State, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wizard state: %w", err)
	}
	return Decode(data)
}

func (s *RedisStore) Save(ctx context.Context, id string, st State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save wizard state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete wizard state: %w", err)
	}
	return nil
}

// Acquire takes the step lock for id with SET NX, shared by every replica
// using this Redis. The lock expires after lockTTL if its holder dies.
func (s *RedisStore) Acquire(ctx context.Context, id string) (func(), error) {
	key := redisLockPrefix + id
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, lockTTL)
	defer cancel()

	for {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to lock wizard state: %w", err)
		}
		if ok {
			return func() {
				// the request context may already be gone
				_ = releaseLock.Run(context.Background(), s.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to lock wizard state: %w", ctx.Err())
		case <-time.After(lockRetry):
		}
	}
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
