// Package pagetitle fetches a web page and extracts its <title>.
package pagetitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	// MaxBodySize caps how much of a page is read while looking for the title.
	MaxBodySize = 1 << 20
	// MaxTitleLength matches the width of the links.title column.
	MaxTitleLength = 512

	defaultTimeout = 5 * time.Second
	userAgent      = "ShortlyBot/1.0 (+title fetcher)"
)

var ErrFetch = errors.New("pagetitle: fetch failed")

// Fetcher performs bounded GET requests.
type Fetcher struct {
	client *http.Client
	log    *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client. Its Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// New creates a Fetcher whose requests give up after timeout.
func New(timeout time.Duration, log *zap.Logger, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &Fetcher{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchTitle returns the page title of rawURL. A page without a title yields
// rawURL itself. Transport failures are wrapped in ErrFetch; HTTP error
// statuses are not failures since error pages usually carry a title too.
func (f *Fetcher) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Join(ErrFetch, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrFetch, fmt.Errorf("get %s: %w", rawURL, err))
	}
	defer resp.Body.Close()

	title, err := ExtractTitle(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return "", errors.Join(ErrFetch, fmt.Errorf("read %s: %w", rawURL, err))
	}

	f.log.Debug("fetched page title",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.String("title", title))

	if title == "" {
		return truncate(rawURL), nil
	}
	return title, nil
}

// ExtractTitle returns the whitespace-normalized text of the first <title>
// element, or "" when there is none. Only read errors are reported.
func ExtractTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	inTitle := false
	var b strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return normalize(b.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && string(name) == "title" {
				return normalize(b.String()), nil
			}
			if string(name) == "head" {
				return normalize(b.String()), nil
			}
		}
	}
}

func normalize(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "))
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxTitleLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxTitleLength])
}
