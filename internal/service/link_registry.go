package service

import (
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxRetries = 5

var (
	ErrInvalidURL     = errors.New("invalid url")
	ErrTitleFetch     = errors.New("failed to fetch page title")
	ErrCodeGeneration = errors.New("failed to generate a unique short code")
)

// TitleFetcher resolves the page title of a URL.
type TitleFetcher interface {
	FetchTitle(ctx context.Context, rawURL string) (string, error)
}

// LinkRegistry keeps exactly one Link per distinct URL.
type LinkRegistry struct {
	links  repository.LinkStore
	titles TitleFetcher
	config *config.URLShortener
	log    *zap.Logger
	group  singleflight.Group
}

func NewLinkRegistry(links repository.LinkStore, titles TitleFetcher, cfg *config.URLShortener, log *zap.Logger) *LinkRegistry {
	return &LinkRegistry{
		links:  links,
		titles: titles,
		config: cfg,
		log:    log,
	}
}

// FindByURL returns nil, nil when no link exists for rawURL.
func (r *LinkRegistry) FindByURL(ctx context.Context, rawURL string) (*domain.Link, error) {
	link, err := r.links.GetLinkByURL(ctx, rawURL)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link by url: %w", err)
	}
	return link, nil
}

// FindByCode returns nil, nil when the code is unknown.
func (r *LinkRegistry) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	link, err := r.links.GetLinkByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link by code: %w", err)
	}
	return link, nil
}

// ListAll returns every link in creation order.
func (r *LinkRegistry) ListAll(ctx context.Context) ([]domain.Link, error) {
	links, err := r.links.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// CreateOrGet returns the link for rawURL, creating it on first use.
// baseOrigin is stored as the link's base URL. owner may be nil or anonymous.
func (r *LinkRegistry) CreateOrGet(ctx context.Context, rawURL, baseOrigin string, owner *domain.Principal) (*domain.Link, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	// Concurrent callers for the same URL share one fetch and one insert.
	// The database unique index still decides races between processes.
	v, err, shared := r.group.Do(target, func() (any, error) {
		return r.createOrGet(context.WithoutCancel(ctx), target, baseOrigin, owner)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("link creation shared with concurrent request", zap.String("url", target))
	}

	link := *v.(*domain.Link)
	return &link, nil
}

func (r *LinkRegistry) createOrGet(ctx context.Context, target, baseOrigin string, owner *domain.Principal) (*domain.Link, error) {
	existing, err := r.FindByURL(ctx, target)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	title, err := r.titles.FetchTitle(ctx, target)
	if err != nil {
		r.log.Info("title fetch failed", zap.String("url", target), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTitleFetch, err)
	}

	link := &domain.Link{
		URL:     target,
		Title:   title,
		BaseURL: strings.TrimRight(baseOrigin, "/"),
	}
	if owner != nil && !owner.Anonymous() {
		ownerID := owner.UserID
		link.OwnerID = &ownerID
	}

	for i := 0; i < maxRetries; i++ {
		link.Code, err = random.NewRandomString(r.config.AliasLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		err = r.links.CreateLink(ctx, link)
		if err == nil {
			r.log.Info("link created",
				zap.Int64("link_id", link.ID),
				zap.String("code", link.Code),
				zap.String("url", target))
			return link, nil
		}
		if !errors.Is(err, repository.ErrLinkExists) {
			return nil, fmt.Errorf("failed to save link: %w", err)
		}

		// either another writer stored this url first or the code collided
		winner, findErr := r.FindByURL(ctx, target)
		if findErr != nil {
			return nil, findErr
		}
		if winner != nil {
			r.log.Debug("lost link creation race", zap.String("url", target), zap.String("code", winner.Code))
			return winner, nil
		}
		r.log.Debug("short code collision, retrying", zap.String("code", link.Code), zap.Int("attempt", i+1))
	}

	return nil, ErrCodeGeneration
}

// ValidateURL trims rawURL and requires an absolute http(s) URL with a host.
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return trimmed, nil
}
