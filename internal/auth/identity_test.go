package auth

import (
	"Shortly-Backend/internal/domain"
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolver_Local(t *testing.T) {
	ta := newTestAuth(t)
	ctx := context.Background()

	user, err := ta.credentials.Create(ctx, "alice", "pw-alice")
	require.NoError(t, err)

	principal, err := ta.resolver.Authenticate(ctx, LocalPassword{Username: "alice", Password: "pw-alice"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, "alice", principal.DisplayName)
	assert.Equal(t, domain.AuthMethodPassword, principal.Method)

	stored, err := ta.store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestIdentityResolver_LocalFailuresAreIndistinguishable(t *testing.T) {
	ta := newTestAuth(t)
	ctx := context.Background()

	_, err := ta.credentials.Create(ctx, "alice", "pw-alice")
	require.NoError(t, err)

	_, wrongPassword := ta.resolver.AuthenticateLocal(ctx, "alice", "nope")
	_, unknownUser := ta.resolver.AuthenticateLocal(ctx, "bob", "nope")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestIdentityResolver_OAuthFindOrCreate(t *testing.T) {
	ta := newTestAuth(t)
	ctx := context.Background()

	profile := OAuthProfile{Provider: "github", ProviderID: "583231", Login: "octocat"}

	first, err := ta.resolver.Authenticate(ctx, profile)
	require.NoError(t, err)
	assert.False(t, first.Anonymous())
	assert.Equal(t, "octocat", first.DisplayName)
	assert.Equal(t, domain.AuthMethodGitHub, first.Method)

	profile.Name = "The Octocat"
	second, err := ta.resolver.Authenticate(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, "The Octocat", second.DisplayName)

	other, err := ta.resolver.Authenticate(ctx, OAuthProfile{Provider: "github", ProviderID: "1", Login: "other"})
	require.NoError(t, err)
	assert.NotEqual(t, first.UserID, other.UserID)
}

func TestIdentityResolver_OAuthConcurrentFirstLogin(t *testing.T) {
	ta := newTestAuth(t)
	ctx := context.Background()
	profile := OAuthProfile{Provider: "github", ProviderID: "42", Login: "racer"}

	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := ta.resolver.AuthenticateOAuth(ctx, profile)
			assert.NoError(t, err)
			ids[i] = p.UserID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestIdentityResolver_OAuthLocalNamespacesDoNotCollide(t *testing.T) {
	ta := newTestAuth(t)
	ctx := context.Background()

	local, err := ta.credentials.Create(ctx, "octocat", "pw-local")
	require.NoError(t, err)

	remote, err := ta.resolver.AuthenticateOAuth(ctx, OAuthProfile{Provider: "github", ProviderID: "7", Login: "octocat"})
	require.NoError(t, err)
	assert.NotEqual(t, local.ID, remote.UserID)
}

func TestIdentityResolver_CurrentPrincipal(t *testing.T) {
	ta := newTestAuth(t)
	ctx := context.Background()

	anon, err := ta.resolver.CurrentPrincipal(ctx, "")
	require.NoError(t, err)
	assert.True(t, anon.Anonymous())

	anon, err = ta.resolver.CurrentPrincipal(ctx, "unknown-token")
	require.NoError(t, err)
	assert.True(t, anon.Anonymous())

	user, err := ta.credentials.Create(ctx, "alice", "pw-alice")
	require.NoError(t, err)
	principal := domain.PrincipalFor(user, domain.AuthMethodPassword)

	session, err := ta.sessions.Start(ctx, httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil), principal)
	require.NoError(t, err)

	current, err := ta.resolver.CurrentPrincipal(ctx, session.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, principal, current)
}
