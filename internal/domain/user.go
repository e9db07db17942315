package domain

import "time"

// Источники регистрации пользователя
const (
	ProviderLocal  = ""
	ProviderGitHub = "github"
)

// User представляет пользователя сервиса.
// Локальные пользователи имеют PasswordHash, OAuth-пользователи - пару Provider/ProviderID.
type User struct {
	ID           int64      `gorm:"primaryKey;column:id" json:"id"`
	Username     string     `gorm:"column:username;size:128;uniqueIndex;not null" json:"username"`
	PasswordHash *string    `gorm:"column:password_hash" json:"-"` // скрываем пароль в JSON
	Provider     string     `gorm:"column:provider;size:32;uniqueIndex:idx_users_provider_identity;not null;default:''" json:"provider,omitempty"`
	ProviderID   *string    `gorm:"column:provider_id;size:64;uniqueIndex:idx_users_provider_identity" json:"-"`
	DisplayName  string     `gorm:"column:display_name;size:255" json:"display_name"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsLocal сообщает, что пользователь входит по паролю
func (u *User) IsLocal() bool {
	return u.Provider == ProviderLocal && u.PasswordHash != nil
}

// Name возвращает отображаемое имя, по умолчанию username
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
