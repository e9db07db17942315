package auth

import (
	"Shortly-Backend/internal/repository/memory"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testAuth struct {
	store       *memory.MemStorage
	credentials *CredentialStore
	sessions    *SessionManager
	resolver    *IdentityResolver
	states      *StateService
}

func newTestAuth(t *testing.T) *testAuth {
	t.Helper()
	log := zap.NewNop()
	store := memory.New()
	credentials := NewCredentialStore(store, NewPasswordServiceWithCost(bcrypt.MinCost), log)
	sessions := NewSessionManager(store, SessionConfig{CookieName: "sid", TTL: time.Hour}, log)
	return &testAuth{
		store:       store,
		credentials: credentials,
		sessions:    sessions,
		resolver:    NewIdentityResolver(credentials, store, sessions, log),
		states:      NewStateService(&StateConfig{SecretKey: []byte("test-secret"), Issuer: "shortly-test"}),
	}
}
