package auth

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionConfig настройки cookie-сессий
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Proxies    TrustedProxies
}

// SessionManager управляет жизненным циклом сессий: Anonymous -> Authenticated -> Anonymous
type SessionManager struct {
	store  repository.SessionStore
	config SessionConfig
	log    *zap.Logger
}

// NewSessionManager создает менеджер сессий
func NewSessionManager(store repository.SessionStore, config SessionConfig, log *zap.Logger) *SessionManager {
	if config.CookieName == "" {
		config.CookieName = "shortly_session"
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	return &SessionManager{
		store:  store,
		config: config,
		log:    log,
	}
}

// CookieName возвращает имя cookie сессии
func (m *SessionManager) CookieName() string {
	return m.config.CookieName
}

// Start создает новую сессию для principal. Предыдущая сессия запроса удаляется,
// поэтому токен меняется при каждом входе.
func (m *SessionManager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, principal domain.Principal) (*domain.Session, error) {
	if principal.Anonymous() {
		return nil, errors.New("cannot start a session for an anonymous principal")
	}

	if previous := m.TokenFromRequest(r); previous != "" {
		if err := m.store.DeleteSession(ctx, previous); err != nil {
			m.log.Warn("failed to delete previous session", zap.Error(err))
		}
	}

	session := &domain.Session{
		UserID:       principal.UserID,
		SessionToken: newSessionToken(),
		DisplayName:  principal.DisplayName,
		AuthMethod:   principal.Method,
		ExpiresAt:    time.Now().Add(m.config.TTL),
	}
	if ua := r.UserAgent(); ua != "" {
		session.UserAgent = &ua
	}
	if ip := m.config.Proxies.ClientIP(r); ip != "" {
		session.IPAddress = &ip
	}

	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    session.SessionToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(m.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.log.Info("session started",
		zap.Int64("user_id", principal.UserID),
		zap.String("auth_method", string(principal.Method)))
	return session, nil
}

// End уничтожает сессию запроса, если она есть, и стирает cookie. Повторный вызов безопасен.
func (m *SessionManager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token := m.TokenFromRequest(r)
	m.clearCookie(w)
	if token == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Lookup возвращает действующую сессию по токену. Истекшие сессии удаляются.
func (m *SessionManager) Lookup(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, repository.ErrSessionNotFound
	}

	session, err := m.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			m.log.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

// TokenFromRequest читает токен сессии из cookie
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// PurgeExpired удаляет все истекшие сессии
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info("purged expired sessions", zap.Int64("count", n))
	}
	return n, nil
}

// RunPurger периодически вызывает PurgeExpired до отмены ctx
func (m *SessionManager) RunPurger(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.PurgeExpired(ctx); err != nil {
				m.log.Warn("failed to purge expired sessions", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *SessionManager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// newSessionToken возвращает 32 hex-символа (122 случайных бита UUIDv4)
func newSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
