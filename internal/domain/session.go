package domain

import (
	"time"
)

// Session представляет пользовательскую сессию для веб-авторизации
type Session struct {
	ID           int64      `gorm:"primaryKey;column:id" json:"id"`
	UserID       int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	SessionToken string     `gorm:"column:session_token;size:32;uniqueIndex;not null" json:"-"`
	DisplayName  string     `gorm:"column:display_name;size:255" json:"display_name"`
	AuthMethod   AuthMethod `gorm:"column:auth_method;size:32;not null" json:"auth_method"`
	ExpiresAt    time.Time  `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UserAgent    *string    `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	IPAddress    *string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (Session) TableName() string {
	return "sessions"
}

// IsExpired проверяет, истекла ли сессия
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid проверяет, является ли сессия валидной
func (s *Session) IsValid() bool {
	return !s.IsExpired() && s.SessionToken != ""
}

// Principal восстанавливает личность пользователя из сессии
func (s *Session) Principal() Principal {
	return Principal{
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Method:      s.AuthMethod,
	}
}
