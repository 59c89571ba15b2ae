package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memoryRegistry stands in for redis in tests.
type memoryRegistry struct {
	mu      sync.Mutex
	entries map[uint]memoryEntry
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{entries: make(map[uint]memoryEntry)}
}

func (m *memoryRegistry) Put(ctx context.Context, userID uint, refreshToken string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = memoryEntry{token: refreshToken, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *memoryRegistry) Get(ctx context.Context, userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok || time.Now().After(e.expiresAt) {
		delete(m.entries, userID)
		return "", ErrSessionNotFound
	}
	return e.token, nil
}

func (m *memoryRegistry) Delete(ctx context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

func TestIssueRegistersRefreshToken(t *testing.T) {
	setTestSecrets(t)
	reg := newMemoryRegistry()
	m := newSessionManager(reg)

	access, refresh, err := m.Issue(context.Background(), 5)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens")
	}
	stored, err := reg.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("registry get failed: %v", err)
	}
	if stored != refresh {
		t.Fatal("registry does not hold the issued refresh token")
	}
	// the entry must live exactly as long as the refresh token itself
	want := time.Now().Add(refreshTokenTTL)
	reg.mu.Lock()
	expiresAt := reg.entries[5].expiresAt
	reg.mu.Unlock()
	if d := want.Sub(expiresAt); d < -time.Minute || d > time.Minute {
		t.Fatalf("registry entry expiry %v, want ~%v (7d TTL)", expiresAt, want)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	setTestSecrets(t)
	m := newSessionManager(newMemoryRegistry())

	_, refresh, err := m.Issue(context.Background(), 5)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	userID, access, err := m.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if userID != 5 {
		t.Fatalf("expected subject 5, got %d", userID)
	}
	if id, err := verifyToken(access, accessSecret); err != nil || id != 5 {
		t.Fatalf("refreshed access token does not verify: id=%d err=%v", id, err)
	}
}

func TestRefreshAfterRevokeRejected(t *testing.T) {
	setTestSecrets(t)
	m := newSessionManager(newMemoryRegistry())

	_, refresh, _ := m.Issue(context.Background(), 5)
	if err := m.Revoke(context.Background(), 5); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	// cryptographically still valid, but no longer registered
	if _, _, err := m.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after revoke, got %v", err)
	}
}

// A second login overwrites the registry entry; the first refresh token is
// dead from then on even though its signature still checks out.
func TestRefreshWithSupersededTokenRejected(t *testing.T) {
	setTestSecrets(t)
	m := newSessionManager(newMemoryRegistry())

	_, first, _ := m.Issue(context.Background(), 5)
	// tokens embed iat/exp with second granularity; force distinct tokens
	time.Sleep(1100 * time.Millisecond)
	_, second, _ := m.Issue(context.Background(), 5)
	if first == second {
		t.Fatal("expected distinct refresh tokens")
	}

	if _, _, err := m.Refresh(context.Background(), first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for superseded token, got %v", err)
	}
	if _, _, err := m.Refresh(context.Background(), second); err != nil {
		t.Fatalf("current refresh token rejected: %v", err)
	}
}

func TestRefreshWithAccessTokenRejected(t *testing.T) {
	setTestSecrets(t)
	m := newSessionManager(newMemoryRegistry())

	access, _, _ := m.Issue(context.Background(), 5)
	if _, _, err := m.Refresh(context.Background(), access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	setTestSecrets(t)
	m := newSessionManager(newMemoryRegistry())

	m.Issue(context.Background(), 5)
	if err := m.Revoke(context.Background(), 5); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if err := m.Revoke(context.Background(), 5); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}
}
