package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"NewsDigest/internal/domain"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// page is a fetched document body with the response content type.
type page struct {
	body        []byte
	contentType string
}

// pageFetcher downloads article pages with a browser-like user agent.
type pageFetcher struct {
	client     *http.Client
	userAgents []string
	next       atomic.Uint64
	maxBytes   int64
}

func newPageFetcher(client *http.Client, timeout time.Duration, userAgents []string, maxBytes int64) *pageFetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if len(userAgents) == 0 {
		userAgents = []string{defaultUserAgent}
	}
	return &pageFetcher{client: client, userAgents: userAgents, maxBytes: maxBytes}
}

// userAgent rotates through the configured agents round-robin.
func (f *pageFetcher) userAgent() string {
	n := f.next.Add(1) - 1
	return f.userAgents[n%uint64(len(f.userAgents))]
}

func (f *pageFetcher) fetch(ctx context.Context, rawURL string) (page, error) {
	if err := validateURL(rawURL); err != nil {
		return page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("%w: build request: %v", domain.ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page{}, fmt.Errorf("%w: %s returned %s", domain.ErrFetch, rawURL, resp.Status)
	}

	var reader io.Reader = resp.Body
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return page{}, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}

	return page{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

// validateURL accepts only absolute http(s) URLs.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url %q: %v", domain.ErrFetch, rawURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: invalid url %q", domain.ErrFetch, rawURL)
	}
	return nil
}
