package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/blogicum/blogicum/pkg/config"
	"github.com/blogicum/blogicum/pkg/logging"
)

const keyPrefix = "blogicum:session:"

var (
	// ErrSessionNotFound is returned for unknown or expired session tokens
	ErrSessionNotFound = errors.New("session not found")
)

// Store keeps login sessions in Redis. A session maps an opaque token to a user ID.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns a session store
func New(ctx context.Context, cfg *config.RedisConfig, ttl time.Duration) (*Store, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing Redis client
func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) namespaceKey(token string) string {
	return keyPrefix + token
}

// TTL returns how long a session lives after creation
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for userID and returns its token
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.namespaceKey(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Get returns the user ID of a live session
func (s *Store) Get(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}
	val, err := s.client.Get(ctx, s.namespaceKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load session: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %q: %w", token, err)
	}
	return userID, nil
}

// Delete ends a session; unknown tokens are ignored
func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, s.namespaceKey(token)).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Health checks Redis health
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
