package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRegistry maps a user id to their currently valid refresh token.
// Entries carry a TTL equal to the refresh token lifetime so abandoned
// sessions clean themselves up without a sweep process.
type SessionRegistry interface {
	Put(ctx context.Context, userID uint, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, userID uint) (string, error)
	Delete(ctx context.Context, userID uint) error
}

var ErrSessionNotFound = errors.New("session not found")

type redisRegistry struct {
	client *redis.Client
}

func newRedisRegistry(client *redis.Client) *redisRegistry {
	return &redisRegistry{client: client}
}

func (r *redisRegistry) key(userID uint) string {
	return fmt.Sprintf("refresh_token:%d", userID)
}

func (r *redisRegistry) Put(ctx context.Context, userID uint, refreshToken string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(userID), refreshToken, ttl).Err()
}

func (r *redisRegistry) Get(ctx context.Context, userID uint) (string, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisRegistry) Delete(ctx context.Context, userID uint) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

// SessionManager pairs the token codec with the registry. Each user has at
// most one registered refresh token; a second login overwrites the first
// (last writer wins).
type SessionManager struct {
	registry SessionRegistry
}

func newSessionManager(registry SessionRegistry) *SessionManager {
	return &SessionManager{registry: registry}
}

// Issue mints both tokens for userID and registers the refresh token.
func (m *SessionManager) Issue(ctx context.Context, userID uint) (accessToken, refreshToken string, err error) {
	accessToken, err = issueAccessToken(userID)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = issueRefreshToken(userID)
	if err != nil {
		return "", "", err
	}
	if err = m.registry.Put(ctx, userID, refreshToken, refreshTokenTTL); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token must verify and must match the registry entry, so a logged-out or
// superseded refresh token is rejected before its natural expiry. The
// refresh token itself is not rotated.
func (m *SessionManager) Refresh(ctx context.Context, presented string) (uint, string, error) {
	userID, err := verifyToken(presented, refreshSecret)
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	stored, err := m.registry.Get(ctx, userID)
	if errors.Is(err, ErrSessionNotFound) {
		return 0, "", ErrInvalidToken
	}
	if err != nil {
		return 0, "", err
	}
	if stored != presented {
		return 0, "", ErrInvalidToken
	}
	accessToken, err := issueAccessToken(userID)
	if err != nil {
		return 0, "", err
	}
	return userID, accessToken, nil
}

// Revoke drops the registry entry. The refresh cookie's contents are never
// inspected here; logout is keyed by the authenticated user id alone.
func (m *SessionManager) Revoke(ctx context.Context, userID uint) error {
	return m.registry.Delete(ctx, userID)
}

// Shared manager wired in initSessions. Tests construct their own with an
// in-memory registry.
var sessions *SessionManager
