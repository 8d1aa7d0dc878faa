package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/lendora/internal/clock"
)

// Store keeps per-operator dialogue state. Absent entries read as Idle;
// Clear is the cancellation path and never touches anything but the
// session entry itself.
type Store interface {
	Get(ctx context.Context, operatorID int64) (State, error)
	Set(ctx context.Context, operatorID int64, state State) error
	Clear(ctx context.Context, operatorID int64) error
}

const redisKeyFormat = "session:operator:%d"

// RedisStore holds sessions in redis with a TTL, so an abandoned dialogue
// expires on its own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, operatorID int64) (State, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf(redisKeyFormat, operatorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Idle{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

func (s *RedisStore) Set(ctx context.Context, operatorID int64, state State) error {
	if _, ok := state.(Idle); ok || state == nil {
		return s.Clear(ctx, operatorID)
	}
	raw, err := Encode(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(redisKeyFormat, operatorID), raw, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, operatorID int64) error {
	return s.client.Del(ctx, fmt.Sprintf(redisKeyFormat, operatorID)).Err()
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when no redis address is
// configured, and by tests.
type MemoryStore struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[int64]memoryEntry
}

func NewMemoryStore(c clock.Clock, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		clock:   c,
		ttl:     ttl,
		entries: make(map[int64]memoryEntry),
	}
}

func (s *MemoryStore) Get(ctx context.Context, operatorID int64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[operatorID]
	if !ok || s.clock.Now().After(entry.expiresAt) {
		delete(s.entries, operatorID)
		return Idle{}, nil
	}
	return entry.state, nil
}

func (s *MemoryStore) Set(ctx context.Context, operatorID int64, state State) error {
	if _, ok := state.(Idle); ok || state == nil {
		return s.Clear(ctx, operatorID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[operatorID] = memoryEntry{
		state:     state,
		expiresAt: s.clock.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, operatorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, operatorID)
	return nil
}
