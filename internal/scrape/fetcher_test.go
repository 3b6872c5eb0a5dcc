package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testArticleURL = "https://en.wikipedia.org/wiki/Ada_Lovelace"

// rewriteTransport redirects every request to the test server while keeping
// the original allow-listed URL on the request line.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testFetcher(t *testing.T, handler http.HandlerFunc, cache ValidatorCache) *Fetcher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}

	f := NewFetcher(5*time.Second, cache, zap.NewNop())
	f.client.Transport = rewriteTransport{target: target}
	return f
}

func TestAllowedURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://en.wikipedia.org/wiki/Ada_Lovelace", true},
		{"https://de.wikipedia.org/wiki/Alan_Turing", true},
		{"http://en.wikipedia.org/wiki/Ada_Lovelace", false},
		{"https://en.wikipedia.org/", false},
		{"https://evil.example.com/wiki/Page", false},
		{"https://en.wikipedia.org.evil.com/wiki/Page", false},
	}
	for _, c := range cases {
		if got := AllowedURL(c.url); got != c.want {
			t.Errorf("AllowedURL(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestFetch_InvalidSource(t *testing.T) {
	f := NewFetcher(time.Second, nil, zap.NewNop())
	_, err := f.Fetch(context.Background(), "https://example.com/wiki/Page")
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got: %v", err)
	}
}

func TestFetch_StoresValidators(t *testing.T) {
	cache := NewMemoryCache(0)
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("<html>body</html>"))
	}, cache)

	page, err := f.Fetch(context.Background(), testArticleURL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if page.ETag != `"v1"` || page.FromCache {
		t.Fatalf("unexpected page: %+v", page)
	}

	cached, err := cache.Get(context.Background(), testArticleURL)
	if err != nil || cached == nil {
		t.Fatalf("expected cached entry, got %v, %v", cached, err)
	}
	if cached.ETag != `"v1"` || cached.HTML != "<html>body</html>" {
		t.Fatalf("unexpected cache entry: %+v", cached)
	}
}

func TestFetch_NotModifiedServedFromCache(t *testing.T) {
	cache := NewMemoryCache(0)
	var sawConditional bool

	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			sawConditional = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("<html>original</html>"))
	}, cache)

	ctx := context.Background()
	if _, err := f.Fetch(ctx, testArticleURL); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	page, err := f.Fetch(ctx, testArticleURL)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if !sawConditional {
		t.Fatal("second fetch did not replay validators")
	}
	if !page.FromCache {
		t.Fatal("304 response should be served from cache")
	}
	if page.HTML != "<html>original</html>" {
		t.Fatalf("unexpected cached body: %q", page.HTML)
	}
}

func TestFetch_NotModifiedWithoutBody(t *testing.T) {
	cache := NewMemoryCache(0)
	// Seed validators with no body, the degenerate case.
	cache.Set(context.Background(), testArticleURL, &CachedPage{ETag: `"v1"`})

	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}, cache)

	_, err := f.Fetch(context.Background(), testArticleURL)
	if !errors.Is(err, ErrNotModified) {
		t.Fatalf("expected ErrNotModified, got: %v", err)
	}
}

func TestFetch_UpstreamError(t *testing.T) {
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := f.Fetch(context.Background(), testArticleURL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got: %v", err)
	}
	if fetchErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", fetchErr.Status)
	}
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	cache := NewMemoryCache(2)
	ctx := context.Background()

	cache.Set(ctx, "a", &CachedPage{HTML: "a"})
	cache.Set(ctx, "b", &CachedPage{HTML: "b"})
	cache.Set(ctx, "c", &CachedPage{HTML: "c"})

	if got, _ := cache.Get(ctx, "a"); got != nil {
		t.Fatal("oldest entry should have been evicted")
	}
	if got, _ := cache.Get(ctx, "c"); got == nil || got.HTML != "c" {
		t.Fatalf("newest entry missing: %+v", got)
	}
}
