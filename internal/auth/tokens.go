package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// TokenStore keeps login sessions in Redis keyed by an opaque bearer token.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	StaffID string      `json:"staff_id"`
	Name    string      `json:"name"`
	Role    shared.Role `json:"role"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token for the staff member and stores its session payload.
func (t *TokenStore) Issue(ctx context.Context, staff *Staff) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	payload, err := json.Marshal(tokenPayload{StaffID: staff.ID, Name: staff.Name, Role: staff.Role})
	if err != nil {
		return "", err
	}
	if err := t.client.Set(ctx, t.key(token), payload, t.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve returns the session a token identifies, refreshing its TTL.
func (t *TokenStore) Resolve(ctx context.Context, token string) (shared.Session, error) {
	raw, err := t.client.Get(ctx, t.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Session{}, shared.ErrInvalidCredentials
		}
		return shared.Session{}, fmt.Errorf("auth: load token: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return shared.Session{}, fmt.Errorf("auth: decode token payload: %w", err)
	}
	t.client.Expire(ctx, t.key(token), t.ttl)
	return shared.NewSession(payload.StaffID, payload.Name, payload.Role), nil
}

// Revoke deletes the token.
func (t *TokenStore) Revoke(ctx context.Context, token string) error {
	return t.client.Del(ctx, t.key(token)).Err()
}

func (t *TokenStore) key(token string) string {
	return "gemdesk:session:" + token
}
