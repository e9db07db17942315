package service

import (
	"Shortly-Backend/internal/cache"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ClickMeta is the request data stored with a click. Empty fields are not stored.
type ClickMeta struct {
	IPAddress string
	UserAgent string
	Referer   string
}

// Resolution is the outcome of Resolve. Found is false for unknown codes.
type Resolution struct {
	Found  bool
	LinkID int64
	URL    string
}

// ClickRetrier takes over click writes that failed on the request path.
type ClickRetrier interface {
	Submit(click *domain.Click) error
}

// Redirector resolves short codes and does the visit accounting.
type Redirector struct {
	links   repository.LinkStore
	clicks  repository.ClickStore
	targets *cache.ReadThrough[domain.LinkTarget]
	parser  *useragent.Parser
	retrier ClickRetrier
	log     *zap.Logger
}

// RedirectorOption configures optional collaborators of a Redirector.
type RedirectorOption func(*Redirector)

// WithTargetCache puts a read-through cache in front of code lookups.
func WithTargetCache(c cache.Cache[domain.LinkTarget]) RedirectorOption {
	return func(r *Redirector) {
		r.targets = cache.NewReadThrough(c)
	}
}

// WithUserAgentParser enables device, browser and OS enrichment of clicks.
func WithUserAgentParser(p *useragent.Parser) RedirectorOption {
	return func(r *Redirector) {
		r.parser = p
	}
}

// WithClickRetrier hands failed click writes to a background retrier.
func WithClickRetrier(cr ClickRetrier) RedirectorOption {
	return func(r *Redirector) {
		r.retrier = cr
	}
}

func NewRedirector(links repository.LinkStore, clicks repository.ClickStore, log *zap.Logger, opts ...RedirectorOption) *Redirector {
	r := &Redirector{
		links:  links,
		clicks: clicks,
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up code, records a click and increments the visit counter.
// A failed click write never fails the call; a failed increment does.
func (r *Redirector) Resolve(ctx context.Context, code string, meta ClickMeta) (Resolution, error) {
	if code == "" {
		return Resolution{}, nil
	}

	target, err := r.lookup(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		r.log.Debug("unknown short code", zap.String("code", code))
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to look up code %q: %w", code, err)
	}

	// the visitor may hang up once the redirect is on its way
	writeCtx := context.WithoutCancel(ctx)

	r.recordClick(writeCtx, r.newClick(target.ID, meta))

	if err := r.links.IncrementVisits(writeCtx, target.ID); err != nil {
		return Resolution{}, fmt.Errorf("failed to increment visits of link %d: %w", target.ID, err)
	}

	return Resolution{Found: true, LinkID: target.ID, URL: target.URL}, nil
}

// Peek resolves code like Resolve but records nothing. It serves HEAD
// requests from link preview bots.
func (r *Redirector) Peek(ctx context.Context, code string) (Resolution, error) {
	if code == "" {
		return Resolution{}, nil
	}

	target, err := r.lookup(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to look up code %q: %w", code, err)
	}
	return Resolution{Found: true, LinkID: target.ID, URL: target.URL}, nil
}

func (r *Redirector) lookup(ctx context.Context, code string) (domain.LinkTarget, error) {
	load := func(ctx context.Context) (domain.LinkTarget, error) {
		link, err := r.links.GetLinkByCode(ctx, code)
		if err != nil {
			return domain.LinkTarget{}, err
		}
		return link.Target(), nil
	}

	if r.targets == nil {
		return load(ctx)
	}
	return r.targets.GetOrLoad(ctx, code, load)
}

func (r *Redirector) newClick(linkID int64, meta ClickMeta) *domain.Click {
	click := &domain.Click{
		LinkID:    linkID,
		IPAddress: optional(meta.IPAddress),
		UserAgent: optional(meta.UserAgent),
		Referer:   optional(meta.Referer),
		CreatedAt: time.Now(),
	}
	if r.parser != nil && meta.UserAgent != "" {
		info := r.parser.Parse(meta.UserAgent)
		click.DeviceType = optional(info.DeviceType)
		click.Browser = optional(info.Browser)
		click.OS = optional(info.OS)
	}
	return click
}

func (r *Redirector) recordClick(ctx context.Context, click *domain.Click) {
	err := r.clicks.RecordClick(ctx, click)
	if err == nil {
		return
	}

	r.log.Warn("failed to record click", zap.Int64("link_id", click.LinkID), zap.Error(err))
	if r.retrier == nil {
		return
	}
	click.ID = 0
	if err := r.retrier.Submit(click); err != nil {
		r.log.Error("click dropped", zap.Int64("link_id", click.LinkID), zap.Error(err))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
