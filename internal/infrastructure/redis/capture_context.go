package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// captureContextTTL bounds how long a cached capture-context key is reused.
// The processor's transient keys outlive this comfortably; the TTL mainly
// keeps abandoned sessions from pinning keys forever.
const captureContextTTL = 15 * time.Minute

// CaptureContextStore caches the tokenizer capture-context key per checkout
// session, so repeated renders of the payment form reuse one key instead of
// minting a new one on every page load.
type CaptureContextStore struct {
	client *redis.Client
}

// NewCaptureContextStore creates a store backed by the given client.
func NewCaptureContextStore(client *redis.Client) *CaptureContextStore {
	return &CaptureContextStore{client: client}
}

func (s *CaptureContextStore) key(sessionID string) string {
	return "capture_context:" + sessionID
}

// GetOrCreate returns the cached key id for the session, generating and
// caching a fresh one through generate when none exists.
func (s *CaptureContextStore) GetOrCreate(ctx context.Context, sessionID string, generate func(context.Context) (string, error)) (string, error) {
	keyID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == nil && keyID != "" {
		return keyID, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get capture context: %w", err)
	}

	keyID, err = generate(ctx)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(sessionID), keyID, captureContextTTL).Err(); err != nil {
		return "", fmt.Errorf("cache capture context: %w", err)
	}
	return keyID, nil
}

// Regenerate discards the cached key and issues a fresh one. The browser
// tokenizer requests this after a key-related tokenize failure.
func (s *CaptureContextStore) Regenerate(ctx context.Context, sessionID string, generate func(context.Context) (string, error)) (string, error) {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return "", fmt.Errorf("drop capture context: %w", err)
	}
	return s.GetOrCreate(ctx, sessionID, generate)
}
