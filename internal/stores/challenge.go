package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrChallengeNotFound is returned when no pending options exist for an
	// ID, either because none were issued or because they were already
	// consumed or expired.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrChallengeBackend is an exported constant or variable used by the credential engine.
	ErrChallengeBackend = errors.New("challenge backend unavailable")
)

// RedisChallengeStore keeps pending ceremony options in redis under a
// prefixed key with a TTL. Consumption is a single GETDEL, so concurrent
// attempts to answer one challenge see exactly one success.
type RedisChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisChallengeStore(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *RedisChallengeStore {
	if prefix == "" {
		prefix = "gc:chal"
	}
	return &RedisChallengeStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisChallengeStore) key(challengeID string) string {
	return s.prefix + ":" + challengeID
}

func (s *RedisChallengeStore) Save(ctx context.Context, challengeID string, payload []byte) error {
	if err := s.redis.Set(ctx, s.key(challengeID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return nil
}

func (s *RedisChallengeStore) Take(ctx context.Context, challengeID string) ([]byte, error) {
	data, err := s.redis.GetDel(ctx, s.key(challengeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return data, nil
}

type memoryChallenge struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryChallengeStore is the in-process variant used by tests and
// single-node deployments without redis.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryChallenge
}

func NewMemoryChallengeStore(ttl time.Duration) *MemoryChallengeStore {
	return &MemoryChallengeStore{
		ttl:     ttl,
		entries: make(map[string]memoryChallenge),
	}
}

func (s *MemoryChallengeStore) Save(_ context.Context, challengeID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[challengeID] = memoryChallenge{
		payload:   append([]byte(nil), payload...),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryChallengeStore) Take(_ context.Context, challengeID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[challengeID]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	delete(s.entries, challengeID)
	if time.Now().After(entry.expiresAt) {
		return nil, ErrChallengeNotFound
	}
	return entry.payload, nil
}
