package memory

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage keeps everything in maps guarded by one mutex. Uniqueness and
// the visit counter behave like the SQL store, so it is safe for concurrent use.
type MemStorage struct {
	mu sync.RWMutex

	users           map[int64]*domain.User
	usersByName     map[string]int64
	usersByIdentity map[string]int64
	userCounter     int64

	links       map[int64]*domain.Link
	linksByURL  map[string]int64
	linksByCode map[string]int64
	linkCounter int64

	clicks       []domain.Click
	clickCounter int64

	sessions       map[string]*domain.Session
	sessionCounter int64
}

func New() *MemStorage {
	return &MemStorage{
		users:           make(map[int64]*domain.User),
		usersByName:     make(map[string]int64),
		usersByIdentity: make(map[string]int64),
		links:           make(map[int64]*domain.Link),
		linksByURL:      make(map[string]int64),
		linksByCode:     make(map[string]int64),
		sessions:        make(map[string]*domain.Session),
	}
}

func (s *MemStorage) Ping(_ context.Context) error {
	return nil
}

// --- User Methods ---

func (s *MemStorage) UserExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.usersByName[username]
	return ok, nil
}

func (s *MemStorage) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByName[user.Username]; exists {
		return repository.ErrUserExists
	}
	identity := ""
	if user.ProviderID != nil {
		identity = user.Provider + ":" + *user.ProviderID
		if _, exists := s.usersByIdentity[identity]; exists {
			return repository.ErrUserExists
		}
	}

	s.userCounter++
	now := time.Now()
	user.ID = s.userCounter
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.usersByName[user.Username] = user.ID
	if identity != "" {
		s.usersByIdentity[identity] = user.ID
	}
	return nil
}

func (s *MemStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (s *MemStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.usersByName[username]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *MemStorage) GetUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.usersByIdentity[provider+":"+providerID]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *MemStorage) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.DisplayName = user.DisplayName
	stored.LastLoginAt = user.LastLoginAt
	stored.UpdatedAt = time.Now()
	return nil
}

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.linksByURL[link.URL]; exists {
		return repository.ErrLinkExists
	}
	if _, exists := s.linksByCode[link.Code]; exists {
		return repository.ErrLinkExists
	}

	s.linkCounter++
	link.ID = s.linkCounter
	link.CreatedAt = time.Now()

	stored := *link
	s.links[link.ID] = &stored
	s.linksByURL[link.URL] = link.ID
	s.linksByCode[link.Code] = link.ID
	return nil
}

func (s *MemStorage) GetLinkByURL(_ context.Context, url string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.linksByURL[url]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	out := *s.links[id]
	return &out, nil
}

func (s *MemStorage) GetLinkByCode(_ context.Context, code string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.linksByCode[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	out := *s.links[id]
	return &out, nil
}

func (s *MemStorage) ListLinks(_ context.Context) ([]domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := make([]domain.Link, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, *link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (s *MemStorage) IncrementVisits(_ context.Context, linkID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[linkID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.Visits++
	return nil
}

// --- Click Methods ---

func (s *MemStorage) RecordClick(_ context.Context, click *domain.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[click.LinkID]; !ok {
		return repository.ErrLinkNotFound
	}
	s.clickCounter++
	click.ID = s.clickCounter
	if click.CreatedAt.IsZero() {
		click.CreatedAt = time.Now()
	}
	s.clicks = append(s.clicks, *click)
	return nil
}

func (s *MemStorage) CountClicks(_ context.Context, linkID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.clicks {
		if c.LinkID == linkID {
			n++
		}
	}
	return n, nil
}

// --- Session Methods ---

func (s *MemStorage) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionCounter++
	session.ID = s.sessionCounter
	session.CreatedAt = time.Now()
	stored := *session
	s.sessions[session.SessionToken] = &stored
	return nil
}

func (s *MemStorage) GetSessionByToken(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

func (s *MemStorage) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemStorage) DeleteExpiredSessions(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

var _ repository.Storage = (*MemStorage)(nil)
