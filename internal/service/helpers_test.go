package service

import (
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var testShortenerConfig = &config.URLShortener{AliasLength: 6}

type fakeTitles struct {
	mu    sync.Mutex
	calls int
	title string
	err   error
	delay time.Duration
}

func (f *fakeTitles) FetchTitle(_ context.Context, rawURL string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	if f.title == "" {
		return rawURL, nil
	}
	return f.title, nil
}

func (f *fakeTitles) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// collidingLinks pretends the first collisions inserts hit a taken code.
type collidingLinks struct {
	repository.LinkStore
	collisions int32
	lookups    atomic.Int32
}

func (c *collidingLinks) CreateLink(ctx context.Context, link *domain.Link) error {
	if atomic.AddInt32(&c.collisions, -1) >= 0 {
		return repository.ErrLinkExists
	}
	return c.LinkStore.CreateLink(ctx, link)
}

func (c *collidingLinks) GetLinkByCode(ctx context.Context, code string) (*domain.Link, error) {
	c.lookups.Add(1)
	return c.LinkStore.GetLinkByCode(ctx, code)
}

// brokenClicks fails every click write.
type brokenClicks struct{}

func (brokenClicks) RecordClick(context.Context, *domain.Click) error {
	return errors.New("disk I/O error")
}

func (brokenClicks) CountClicks(context.Context, int64) (int64, error) {
	return 0, nil
}

// brokenVisits fails every visit increment.
type brokenVisits struct {
	repository.LinkStore
}

func (brokenVisits) IncrementVisits(context.Context, int64) error {
	return errors.New("connection reset")
}

type recordingRetrier struct {
	mu     sync.Mutex
	clicks []*domain.Click
}

func (r *recordingRetrier) Submit(click *domain.Click) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks = append(r.clicks, click)
	return nil
}
