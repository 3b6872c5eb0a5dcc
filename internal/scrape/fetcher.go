package scrape

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// wikiAllowed is the allowed source pattern for article URLs.
var wikiAllowed = regexp.MustCompile(`(?i)^https://([a-z]+)\.wikipedia\.org/wiki/.+`)

const userAgent = "WikiquizBot/1.0 (+https://github.com/abhisek/wikiquiz)"

// Fetcher retrieves raw article markup for allow-listed URLs, honoring
// conditional-request semantics through a ValidatorCache.
type Fetcher struct {
	client *http.Client
	cache  ValidatorCache
	log    *zap.Logger
}

// NewFetcher creates a Fetcher. cache may be nil to disable conditional
// requests entirely.
func NewFetcher(timeout time.Duration, cache ValidatorCache, log *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		log:    log,
	}
}

// AllowedURL reports whether url matches the allowed source pattern.
func AllowedURL(url string) bool {
	return wikiAllowed.MatchString(url)
}

// Page is the outcome of one fetch: raw markup plus the origin's cache
// validators, and whether the body came from the validator cache.
type Page struct {
	HTML         string
	ETag         string
	LastModified string
	FromCache    bool
}

// Fetch returns the raw markup for url. When the validator cache holds a
// prior copy, its validators are replayed; a 304 from the origin is answered
// from the cached body, so "not modified" never propagates to callers that
// can be served. ErrNotModified is returned only in the degenerate case of
// stored validators without a body.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if !AllowedURL(url) {
		return nil, ErrInvalidSource
	}

	var cached *CachedPage
	if f.cache != nil {
		var err error
		cached, err = f.cache.Get(ctx, url)
		if err != nil {
			// A broken cache must not fail the fetch.
			f.log.Warn("validator cache lookup failed", zap.String("url", url), zap.Error(err))
			cached = nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if cached != nil {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		if cached != nil && cached.HTML != "" {
			f.log.Debug("serving article from validator cache", zap.String("url", url))
			return &Page{
				HTML:         cached.HTML,
				ETag:         cached.ETag,
				LastModified: cached.LastModified,
				FromCache:    true,
			}, nil
		}
		return nil, ErrNotModified
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	page := &Page{
		HTML:         string(body),
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	if f.cache != nil {
		entry := &CachedPage{
			HTML:         page.HTML,
			ETag:         page.ETag,
			LastModified: page.LastModified,
		}
		if err := f.cache.Set(ctx, url, entry); err != nil {
			f.log.Warn("validator cache store failed", zap.String("url", url), zap.Error(err))
		}
	}

	return page, nil
}
