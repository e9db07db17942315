package memory

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_LinkUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, &domain.Link{Code: "abc234", URL: "https://example.com"}))
	require.ErrorIs(t, s.CreateLink(ctx, &domain.Link{Code: "xyz789", URL: "https://example.com"}), repository.ErrLinkExists)
	require.ErrorIs(t, s.CreateLink(ctx, &domain.Link{Code: "abc234", URL: "https://example.org"}), repository.ErrLinkExists)

	links, err := s.ListLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestMemStorage_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateLink(ctx, &domain.Link{Code: "abc234", URL: "https://example.com"}))

	got, err := s.GetLinkByCode(ctx, "abc234")
	require.NoError(t, err)
	got.Visits = 99

	again, err := s.GetLinkByURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Visits)
}

func TestMemStorage_ConcurrentVisitsAndClicks(t *testing.T) {
	s := New()
	ctx := context.Background()

	link := &domain.Link{Code: "abc234", URL: "https://example.com"}
	require.NoError(t, s.CreateLink(ctx, link))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RecordClick(ctx, &domain.Click{LinkID: link.ID}))
			assert.NoError(t, s.IncrementVisits(ctx, link.ID))
		}()
	}
	wg.Wait()

	stored, err := s.GetLinkByCode(ctx, "abc234")
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.Visits)

	clicks, err := s.CountClicks(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), clicks)

	require.ErrorIs(t, s.IncrementVisits(ctx, 404), repository.ErrLinkNotFound)
	require.ErrorIs(t, s.RecordClick(ctx, &domain.Click{LinkID: 404}), repository.ErrLinkNotFound)
}

func TestMemStorage_Users(t *testing.T) {
	s := New()
	ctx := context.Background()

	hash := "h"
	require.NoError(t, s.CreateUser(ctx, &domain.User{Username: "alice", PasswordHash: &hash}))
	require.ErrorIs(t, s.CreateUser(ctx, &domain.User{Username: "alice"}), repository.ErrUserExists)

	id := "42"
	require.NoError(t, s.CreateUser(ctx, &domain.User{Username: "github:42", Provider: domain.ProviderGitHub, ProviderID: &id}))
	same := "42"
	err := s.CreateUser(ctx, &domain.User{Username: "someone-else", Provider: domain.ProviderGitHub, ProviderID: &same})
	require.ErrorIs(t, err, repository.ErrUserExists)

	user, err := s.GetUserByProvider(ctx, domain.ProviderGitHub, "42")
	require.NoError(t, err)
	assert.Equal(t, "github:42", user.Username)

	_, err = s.GetUserByUsername(ctx, "bob")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}
