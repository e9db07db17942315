package gormstore

import (
	"Shortly-Backend/internal/database/dbtest"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	return New(dbtest.New(t), zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestStorage_Ping(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestStorage_Users(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	alice := &domain.User{Username: "alice", PasswordHash: strPtr("hash")}
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.NotZero(t, alice.ID)

	exists, err := s.UserExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.UserExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.CreateUser(ctx, &domain.User{Username: "alice", PasswordHash: strPtr("other")})
	require.ErrorIs(t, err, repository.ErrUserExists)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	require.NotNil(t, byName.PasswordHash)
	assert.Equal(t, "hash", *byName.PasswordHash)

	_, err = s.GetUserByID(ctx, 9999)
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	now := time.Now()
	byName.DisplayName = "Alice A."
	byName.LastLoginAt = &now
	require.NoError(t, s.UpdateUser(ctx, byName))

	updated, err := s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)
	assert.NotNil(t, updated.LastLoginAt)

	require.ErrorIs(t, s.UpdateUser(ctx, &domain.User{ID: 9999}), repository.ErrUserNotFound)
}

func TestStorage_ProviderIdentity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// local users share the empty provider with a NULL provider_id
	require.NoError(t, s.CreateUser(ctx, &domain.User{Username: "local-1", PasswordHash: strPtr("h")}))
	require.NoError(t, s.CreateUser(ctx, &domain.User{Username: "local-2", PasswordHash: strPtr("h")}))

	gh := &domain.User{Username: "github:42", Provider: domain.ProviderGitHub, ProviderID: strPtr("42")}
	require.NoError(t, s.CreateUser(ctx, gh))

	dup := &domain.User{Username: "github:42-again", Provider: domain.ProviderGitHub, ProviderID: strPtr("42")}
	require.ErrorIs(t, s.CreateUser(ctx, dup), repository.ErrUserExists)

	found, err := s.GetUserByProvider(ctx, domain.ProviderGitHub, "42")
	require.NoError(t, err)
	assert.Equal(t, gh.ID, found.ID)

	_, err = s.GetUserByProvider(ctx, domain.ProviderGitHub, "43")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestStorage_LinkUniqueness(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	link := &domain.Link{Code: "abc234", URL: "https://example.com", Title: "Example"}
	require.NoError(t, s.CreateLink(ctx, link))
	assert.NotZero(t, link.ID)

	sameURL := &domain.Link{Code: "xyz789", URL: "https://example.com"}
	require.ErrorIs(t, s.CreateLink(ctx, sameURL), repository.ErrLinkExists)

	sameCode := &domain.Link{Code: "abc234", URL: "https://example.org"}
	require.ErrorIs(t, s.CreateLink(ctx, sameCode), repository.ErrLinkExists)

	byURL, err := s.GetLinkByURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, link.ID, byURL.ID)

	byCode, err := s.GetLinkByCode(ctx, "abc234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", byCode.URL)
	assert.Equal(t, int64(0), byCode.Visits)

	_, err = s.GetLinkByCode(ctx, "nope")
	require.ErrorIs(t, err, repository.ErrLinkNotFound)
	_, err = s.GetLinkByURL(ctx, "https://nope.example")
	require.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestStorage_ListLinksInInsertionOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateLink(ctx, &domain.Link{
			Code: fmt.Sprintf("code%02d", i),
			URL:  fmt.Sprintf("https://example.com/%d", i),
		}))
	}

	links, err := s.ListLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 5)
	for i, l := range links {
		assert.Equal(t, fmt.Sprintf("code%02d", i), l.Code)
	}
}

func TestStorage_IncrementVisitsIsAtomic(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	link := &domain.Link{Code: "abc234", URL: "https://example.com"}
	require.NoError(t, s.CreateLink(ctx, link))

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementVisits(ctx, link.ID))
		}()
	}
	wg.Wait()

	stored, err := s.GetLinkByCode(ctx, "abc234")
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.Visits)

	require.ErrorIs(t, s.IncrementVisits(ctx, 9999), repository.ErrLinkNotFound)
}

func TestStorage_Clicks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	link := &domain.Link{Code: "abc234", URL: "https://example.com"}
	require.NoError(t, s.CreateLink(ctx, link))

	for i := 0; i < 3; i++ {
		click := &domain.Click{LinkID: link.ID, UserAgent: strPtr("curl/8.0"), DeviceType: strPtr("unknown")}
		require.NoError(t, s.RecordClick(ctx, click))
		assert.NotZero(t, click.ID)
		assert.False(t, click.CreatedAt.IsZero())
	}

	n, err := s.CountClicks(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.CountClicks(ctx, link.ID+1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStorage_Sessions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := &domain.User{Username: "alice", PasswordHash: strPtr("h")}
	require.NoError(t, s.CreateUser(ctx, user))

	live := &domain.Session{
		UserID:       user.ID,
		SessionToken: "0123456789abcdef0123456789abcdef",
		DisplayName:  "alice",
		AuthMethod:   domain.AuthMethodPassword,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	expired := &domain.Session{
		UserID:       user.ID,
		SessionToken: "fedcba9876543210fedcba9876543210",
		AuthMethod:   domain.AuthMethodPassword,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, live))
	require.NoError(t, s.CreateSession(ctx, expired))

	got, err := s.GetSessionByToken(ctx, live.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, live.Principal(), got.Principal())

	n, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSessionByToken(ctx, expired.SessionToken)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)

	require.NoError(t, s.DeleteSession(ctx, live.SessionToken))
	require.NoError(t, s.DeleteSession(ctx, live.SessionToken))
	_, err = s.GetSessionByToken(ctx, live.SessionToken)
	require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_links_url" (SQLSTATE 23505)`)))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: links.code (2067)")))
	assert.False(t, isUniqueViolation(errors.New("database is locked")))
}
