package repository

import (
	"Shortly-Backend/internal/domain"
	"context"
	"errors"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrLinkNotFound    = errors.New("link not found")
	ErrLinkExists      = errors.New("link already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// UserStore persists accounts of both local and OAuth users.
type UserStore interface {
	UserExists(ctx context.Context, username string) (bool, error)
	// CreateUser returns ErrUserExists when the username or provider identity is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// LinkStore persists links. The url and code columns are unique.
type LinkStore interface {
	// CreateLink returns ErrLinkExists when either the url or the code is taken.
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLinkByURL(ctx context.Context, url string) (*domain.Link, error)
	GetLinkByCode(ctx context.Context, code string) (*domain.Link, error)
	ListLinks(ctx context.Context) ([]domain.Link, error)
	// IncrementVisits adds one to the visit counter without a read-modify-write cycle.
	IncrementVisits(ctx context.Context, linkID int64) error
}

// ClickStore appends to the click trail.
type ClickStore interface {
	RecordClick(ctx context.Context, click *domain.Click) error
	CountClicks(ctx context.Context, linkID int64) (int64, error)
}

// SessionStore persists browser sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Storage is everything the service needs from a backing store.
type Storage interface {
	UserStore
	LinkStore
	ClickStore
	SessionStore

	Ping(ctx context.Context) error
}
