package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = 1 * time.Hour

const keyPrefixReset = "reset:"

var errResetTokenUnknown = errors.New("reset token unknown or already used")

// ResetTokenStore makes reset tokens single use: the token id is saved
// when the email goes out and consumed on the first reset.
type ResetTokenStore interface {
	Save(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error
	Consume(ctx context.Context, tokenID string) (int64, error)
}

type redisResetTokenStore struct {
	redis *redis.Client
}

// NewRedisResetTokenStore stores reset tokens under "reset:<jti>".
func NewRedisResetTokenStore(client *redis.Client) ResetTokenStore {
	return &redisResetTokenStore{redis: client}
}

func (s *redisResetTokenStore) Save(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	if err := s.redis.Set(ctx, keyPrefixReset+tokenID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (s *redisResetTokenStore) Consume(ctx context.Context, tokenID string) (int64, error) {
	raw, err := s.redis.GetDel(ctx, keyPrefixReset+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, errResetTokenUnknown
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// memoryResetTokenStore is used when Redis is not configured.
type memoryResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryResetToken
	now    func() time.Time
}

type memoryResetToken struct {
	userID    int64
	expiresAt time.Time
}

// NewMemoryResetTokenStore keeps reset tokens in process memory.
func NewMemoryResetTokenStore() ResetTokenStore {
	return &memoryResetTokenStore{tokens: map[string]memoryResetToken{}, now: time.Now}
}

func (s *memoryResetTokenStore) Save(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, t := range s.tokens {
		if now.After(t.expiresAt) {
			delete(s.tokens, id)
		}
	}
	s.tokens[tokenID] = memoryResetToken{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *memoryResetTokenStore) Consume(ctx context.Context, tokenID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID]
	delete(s.tokens, tokenID)
	if !ok || s.now().After(t.expiresAt) {
		return 0, errResetTokenUnknown
	}
	return t.userID, nil
}
