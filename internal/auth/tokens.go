package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
)

// TokenStore maps opaque bearer tokens to users, backed by Redis.
type TokenStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type tokenPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, prefix string, ttl time.Duration) *TokenStore {
	if prefix == "" {
		prefix = "token"
	}
	return &TokenStore{client: client, prefix: prefix, ttl: ttl}
}

// Issue creates a new token for user.
func (s *TokenStore) Issue(ctx context.Context, user permission.User) (string, error) {
	if user.ID == uuid.Nil {
		return "", errors.New("auth: user id required")
	}
	token := uuid.NewString()
	data, err := json.Marshal(tokenPayload{UserID: user.ID.String(), Username: user.Username})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.redisKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve returns the user behind token. Unknown or expired tokens yield ErrUnauthenticated.
func (s *TokenStore) Resolve(ctx context.Context, token string) (permission.User, error) {
	if token == "" {
		return permission.User{}, ErrUnauthenticated
	}
	raw, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return permission.User{}, ErrUnauthenticated
		}
		return permission.User{}, fmt.Errorf("auth: load token: %w", err)
	}
	var stored tokenPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return permission.User{}, fmt.Errorf("auth: decode token: %w", err)
	}
	id, err := uuid.Parse(stored.UserID)
	if err != nil {
		return permission.User{}, errInvalidToken
	}
	return permission.User{ID: id, Username: stored.Username}, nil
}

// Revoke deletes token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// redisKey hashes the token so raw tokens never sit in Redis.
func (s *TokenStore) redisKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}
