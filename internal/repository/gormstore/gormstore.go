package gormstore

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Storage реализует repository.Storage поверх GORM (PostgreSQL или SQLite)
type Storage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр storage
func New(db *gorm.DB, log *zap.Logger) *Storage {
	return &Storage{
		db:  db,
		log: log,
	}
}

// Ping проверяет доступность базы данных
func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- User Methods ---

// UserExists проверяет, занят ли username
func (s *Storage) UserExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check user existence", zap.String("username", username), zap.Error(err))
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

// CreateUser создает пользователя; уникальные индексы решают гонки регистрации
func (s *Storage) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrUserExists
		}
		s.log.Error("failed to create user", zap.String("username", user.Username), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// GetUserByID получает пользователя по ID
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

// GetUserByUsername получает пользователя по username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

// GetUserByProvider получает OAuth-пользователя по идентификатору провайдера
func (s *Storage) GetUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return s.findUser(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

func (s *Storage) findUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser обновляет изменяемые поля пользователя
func (s *Storage) UpdateUser(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"display_name":  user.DisplayName,
			"last_login_at": user.LastLoginAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		s.log.Error("failed to update user", zap.Int64("user_id", user.ID), zap.Error(result.Error))
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// --- Link Methods ---

// CreateLink сохраняет новую ссылку. Дубликат url или code дает ErrLinkExists.
func (s *Storage) CreateLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrLinkExists
		}
		s.log.Error("failed to save link", zap.String("url", link.URL), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("code", link.Code), zap.String("url", link.URL))
	return nil
}

// GetLinkByURL получает ссылку по исходному URL
func (s *Storage) GetLinkByURL(ctx context.Context, url string) (*domain.Link, error) {
	return s.findLink(ctx, "url = ?", url)
}

// GetLinkByCode получает ссылку по короткому коду
func (s *Storage) GetLinkByCode(ctx context.Context, code string) (*domain.Link, error) {
	return s.findLink(ctx, "code = ?", code)
}

func (s *Storage) findLink(ctx context.Context, query string, arg string) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Where(query, arg).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("query", query), zap.String("value", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// ListLinks возвращает все ссылки в порядке создания
func (s *Storage) ListLinks(ctx context.Context) ([]domain.Link, error) {
	var links []domain.Link
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&links).Error; err != nil {
		s.log.Error("failed to list links", zap.Error(err))
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// IncrementVisits увеличивает счетчик одним UPDATE, без чтения текущего значения
func (s *Storage) IncrementVisits(ctx context.Context, linkID int64) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("id = ?", linkID).
		UpdateColumn("visits", gorm.Expr("visits + ?", 1))
	if result.Error != nil {
		s.log.Error("failed to increment visits", zap.Int64("link_id", linkID), zap.Error(result.Error))
		return fmt.Errorf("failed to increment visits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}
	return nil
}

// --- Click Methods ---

// RecordClick добавляет запись о переходе
func (s *Storage) RecordClick(ctx context.Context, click *domain.Click) error {
	if click.CreatedAt.IsZero() {
		click.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.log.Error("failed to record click", zap.Int64("link_id", click.LinkID), zap.Error(err))
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// CountClicks возвращает количество записанных переходов по ссылке
func (s *Storage) CountClicks(ctx context.Context, linkID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Click{}).Where("link_id = ?", linkID).Count(&count).Error
	if err != nil {
		s.log.Error("failed to count clicks", zap.Int64("link_id", linkID), zap.Error(err))
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// --- Session Methods ---

// CreateSession сохраняет новую сессию
func (s *Storage) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		s.log.Error("failed to create session", zap.Int64("user_id", session.UserID), zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionByToken получает сессию по токену из cookie
func (s *Storage) GetSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.WithContext(ctx).Where("session_token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		s.log.Error("failed to get session", zap.Error(err))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию; отсутствие сессии не считается ошибкой
func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Where("session_token = ?", token).Delete(&domain.Session{}).Error; err != nil {
		s.log.Error("failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions удаляет истекшие сессии и возвращает их количество
func (s *Storage) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&domain.Session{})
	if result.Error != nil {
		s.log.Error("failed to delete expired sessions", zap.Error(result.Error))
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// isUniqueViolation распознает нарушение уникального индекса в PostgreSQL и SQLite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

var _ repository.Storage = (*Storage)(nil)
