package auth

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrDuplicateUser      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// CredentialStore хранит пары username -> bcrypt-хеш пароля
type CredentialStore struct {
	users     repository.UserStore
	passwords *PasswordService
	log       *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore создает хранилище учетных данных
func NewCredentialStore(users repository.UserStore, passwords *PasswordService, log *zap.Logger) *CredentialStore {
	return &CredentialStore{
		users:     users,
		passwords: passwords,
		log:       log,
	}
}

// Exists проверяет, занят ли username
func (c *CredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	return c.users.UserExists(ctx, strings.TrimSpace(username))
}

// Create регистрирует локального пользователя. Пароль в открытом виде не сохраняется и не логируется.
func (c *CredentialStore) Create(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := IsValidUsername(username); err != nil {
		return nil, err
	}
	if err := IsValidPassword(password); err != nil {
		return nil, err
	}

	exists, err := c.users.UserExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := c.passwords.HashPassword(password)
	if err != nil {
		c.log.Error("failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: &hash,
		Provider:     domain.ProviderLocal,
		DisplayName:  username,
	}
	if err := c.users.CreateUser(ctx, user); err != nil {
		// уникальный индекс ловит параллельную регистрацию того же имени
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	c.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", username))
	return user, nil
}

// Verify сравнивает пароль с сохраненным хешем. Для неизвестного пользователя
// выполняется сравнение с фиктивным хешем, чтобы время ответа не выдавало,
// существует ли имя.
func (c *CredentialStore) Verify(ctx context.Context, username, password string) (*domain.User, bool, error) {
	user, err := c.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = c.passwords.VerifyPassword(c.dummy(), password)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsLocal() {
		_ = c.passwords.VerifyPassword(c.dummy(), password)
		return nil, false, nil
	}

	if err := c.passwords.VerifyPassword(*user.PasswordHash, password); err != nil {
		return nil, false, nil
	}
	return user, true, nil
}

func (c *CredentialStore) dummy() string {
	c.dummyOnce.Do(func() {
		hash, err := c.passwords.HashPassword("not-a-real-password")
		if err != nil {
			c.log.Error("failed to build dummy hash", zap.Error(err))
		}
		c.dummyHash = hash
	})
	return c.dummyHash
}
