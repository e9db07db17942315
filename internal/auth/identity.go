package auth

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Credentials - закрытый набор способов входа: LocalPassword или OAuthProfile
type Credentials interface {
	authMethod() domain.AuthMethod
}

// LocalPassword учетные данные формы входа
type LocalPassword struct {
	Username string
	Password string
}

func (LocalPassword) authMethod() domain.AuthMethod { return domain.AuthMethodPassword }

// OAuthProfile профиль, подтвержденный внешним провайдером
type OAuthProfile struct {
	Provider   string
	ProviderID string
	Login      string
	Name       string
	Email      string
}

func (p OAuthProfile) authMethod() domain.AuthMethod {
	return domain.AuthMethod("oauth:" + p.Provider)
}

// DisplayName выбирает имя для отображения: имя, логин или идентификатор
func (p OAuthProfile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Login != "":
		return p.Login
	default:
		return p.Provider + ":" + p.ProviderID
	}
}

// IdentityResolver сводит оба способа входа к одному domain.Principal
type IdentityResolver struct {
	credentials *CredentialStore
	users       repository.UserStore
	sessions    *SessionManager
	log         *zap.Logger
}

// NewIdentityResolver создает резолвер личности
func NewIdentityResolver(credentials *CredentialStore, users repository.UserStore, sessions *SessionManager, log *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		credentials: credentials,
		users:       users,
		sessions:    sessions,
		log:         log,
	}
}

// Authenticate проверяет учетные данные любого вида
func (r *IdentityResolver) Authenticate(ctx context.Context, creds Credentials) (domain.Principal, error) {
	switch c := creds.(type) {
	case LocalPassword:
		return r.AuthenticateLocal(ctx, c.Username, c.Password)
	case OAuthProfile:
		return r.AuthenticateOAuth(ctx, c)
	default:
		return domain.Principal{}, fmt.Errorf("unsupported credentials %T", creds)
	}
}

// AuthenticateLocal проверяет пароль. Неизвестное имя и неверный пароль дают одну и ту же ошибку.
func (r *IdentityResolver) AuthenticateLocal(ctx context.Context, username, password string) (domain.Principal, error) {
	user, ok, err := r.credentials.Verify(ctx, username, password)
	if err != nil {
		return domain.Principal{}, err
	}
	if !ok {
		r.log.Debug("local authentication failed", zap.String("username", username))
		return domain.Principal{}, ErrInvalidCredentials
	}

	r.touchLogin(ctx, user)
	return domain.PrincipalFor(user, domain.AuthMethodPassword), nil
}

// AuthenticateOAuth находит или создает пользователя по (provider, provider_id)
func (r *IdentityResolver) AuthenticateOAuth(ctx context.Context, profile OAuthProfile) (domain.Principal, error) {
	if profile.Provider == "" || profile.ProviderID == "" {
		return domain.Principal{}, errors.New("oauth profile without provider identity")
	}

	user, err := r.users.GetUserByProvider(ctx, profile.Provider, profile.ProviderID)
	switch {
	case err == nil:
		if name := profile.DisplayName(); user.DisplayName != name {
			user.DisplayName = name
		}
		r.touchLogin(ctx, user)
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = r.createOAuthUser(ctx, profile)
		if err != nil {
			return domain.Principal{}, err
		}
	default:
		return domain.Principal{}, fmt.Errorf("failed to find oauth user: %w", err)
	}

	return domain.PrincipalFor(user, profile.authMethod()), nil
}

func (r *IdentityResolver) createOAuthUser(ctx context.Context, profile OAuthProfile) (*domain.User, error) {
	providerID := profile.ProviderID
	now := time.Now()
	user := &domain.User{
		Username:    profile.Provider + ":" + profile.ProviderID,
		Provider:    profile.Provider,
		ProviderID:  &providerID,
		DisplayName: profile.DisplayName(),
		LastLoginAt: &now,
	}

	err := r.users.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrUserExists) {
		// параллельный первый вход того же пользователя
		return r.users.GetUserByProvider(ctx, profile.Provider, profile.ProviderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	r.log.Info("oauth user created",
		zap.Int64("user_id", user.ID),
		zap.String("provider", profile.Provider),
		zap.String("login", profile.Login))
	return user, nil
}

// CurrentPrincipal возвращает principal по токену сессии, анонимного при отсутствии сессии
func (r *IdentityResolver) CurrentPrincipal(ctx context.Context, token string) (domain.Principal, error) {
	session, err := r.sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domain.Principal{}, nil
		}
		return domain.Principal{}, err
	}
	return session.Principal(), nil
}

// touchLogin обновляет время последнего входа; ошибка не мешает входу
func (r *IdentityResolver) touchLogin(ctx context.Context, user *domain.User) {
	now := time.Now()
	user.LastLoginAt = &now
	if err := r.users.UpdateUser(ctx, user); err != nil {
		r.log.Warn("failed to update last login time", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}
