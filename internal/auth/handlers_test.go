package auth

import (
	"Shortly-Backend/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	profile     *OAuthProfile
	exchangeErr error
}

func (f *fakeProvider) Name() string { return GitHubProviderName }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://github.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "token-" + code}, nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*OAuthProfile, error) {
	return f.profile, nil
}

func newTestHandlers(t *testing.T, github OAuthProvider) (*AuthHandlers, *testAuth) {
	t.Helper()
	ta := newTestAuth(t)
	return NewAuthHandlers(ta.credentials, ta.resolver, ta.sessions, ta.states, github, false, zap.NewNop()), ta
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_SignupForm(t *testing.T) {
	h, ta := newTestHandlers(t, nil)

	rec := httptest.NewRecorder()
	h.Signup(rec, formRequest("/signup", url.Values{"username": {"alice"}, "password": {"pw-alice"}}))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookie := findCookie(rec, "sid")
	require.NotNil(t, cookie)

	principal, err := ta.resolver.CurrentPrincipal(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.DisplayName)

	// taken username goes back to the login page
	rec = httptest.NewRecorder()
	h.Signup(rec, formRequest("/signup", url.Values{"username": {"alice"}, "password": {"other-pw"}}))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec, "sid"))
}

func TestAuthHandlers_SignupJSON(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"bob","password":"pw-bob1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var principal domain.Principal
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&principal))
	assert.Equal(t, "bob", principal.DisplayName)
	assert.Equal(t, domain.AuthMethodPassword, principal.Method)

	req = httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.Signup(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlers_Login(t *testing.T) {
	h, ta := newTestHandlers(t, nil)
	_, err := ta.credentials.Create(context.Background(), "alice", "pw-alice")
	require.NoError(t, err)

	tests := []struct {
		name       string
		password   string
		location   string
		wantCookie bool
	}{
		{name: "correct password", password: "pw-alice", location: "/", wantCookie: true},
		{name: "wrong password", password: "nope", location: LoginPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, formRequest("/login", url.Values{"username": {"alice"}, "password": {tt.password}}))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantCookie, findCookie(rec, "sid") != nil)
		})
	}
}

func TestAuthHandlers_Logout(t *testing.T) {
	h, ta := newTestHandlers(t, nil)
	ctx := context.Background()

	session, err := ta.sessions.Start(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil),
		domain.Principal{UserID: 1, DisplayName: "alice", Method: domain.AuthMethodPassword})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: session.SessionToken})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	principal, err := ta.resolver.CurrentPrincipal(ctx, session.SessionToken)
	require.NoError(t, err)
	assert.True(t, principal.Anonymous())
}

func TestAuthHandlers_GitHubFlow(t *testing.T) {
	provider := &fakeProvider{profile: &OAuthProfile{Provider: "github", ProviderID: "583231", Login: "octocat"}}
	h, ta := newTestHandlers(t, provider)

	rec := httptest.NewRecorder()
	h.GitHubLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	stateCookie := findCookie(rec, stateCookieName)
	require.NotNil(t, stateCookie)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	assert.Equal(t, stateCookie.Value, state)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(stateCookie)
	rec = httptest.NewRecorder()
	h.GitHubCallback(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookie := findCookie(rec, "sid")
	require.NotNil(t, cookie)

	principal, err := ta.resolver.CurrentPrincipal(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "octocat", principal.DisplayName)
	assert.Equal(t, domain.AuthMethodGitHub, principal.Method)
}

func TestAuthHandlers_GitHubCallbackFailures(t *testing.T) {
	provider := &fakeProvider{profile: &OAuthProfile{Provider: "github", ProviderID: "1", Login: "x"}}
	h, ta := newTestHandlers(t, provider)

	validState, err := ta.states.GenerateState(GitHubProviderName)
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  string
		cookie string
		setup  func()
	}{
		{name: "missing state cookie", query: "code=abc&state=" + validState},
		{name: "state mismatch", query: "code=abc&state=other", cookie: validState},
		{name: "forged state", query: "code=abc&state=forged", cookie: "forged"},
		{name: "provider error", query: "error=access_denied&state=" + validState, cookie: validState},
		{name: "missing code", query: "state=" + validState, cookie: validState},
		{
			name:   "exchange fails",
			query:  "code=abc&state=" + validState,
			cookie: validState,
			setup:  func() { provider.exchangeErr = errors.New("boom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider.exchangeErr = nil
			if tt.setup != nil {
				tt.setup()
			}

			req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.GitHubCallback(rec, req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, LoginPath, rec.Header().Get("Location"))
			assert.Nil(t, findCookie(rec, "sid"))
		})
	}
}

func TestAuthHandlers_GitHubDisabled(t *testing.T) {
	h, _ := newTestHandlers(t, nil)

	rec := httptest.NewRecorder()
	h.GitHubLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}
