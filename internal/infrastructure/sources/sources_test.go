package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

const newsAPIPayload = `{
  "status": "ok",
  "totalResults": 4,
  "articles": [
    {"source": {"id": "bbc", "name": "BBC News"}, "title": "Markets rally", "description": " Stocks rose. ",
     "url": "https://bbc.example.com/markets", "publishedAt": "2024-05-01T10:00:00Z"},
    {"source": {"id": null, "name": "Removed"}, "title": "[Removed]", "description": "", "url": "https://removed.com", "publishedAt": null},
    {"source": {"id": null, "name": "Nowhere"}, "title": "No link", "description": "x", "url": "", "publishedAt": null},
    {"source": {"id": null, "name": "Wire"}, "title": "Storm warning", "description": "Heavy rain", "url": "https://wire.example.com/storm", "publishedAt": "bogus"}
  ]
}`

func TestNewsAPILatestAndSearch(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
			return
		}
		mu.Lock()
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newsAPIPayload))
	}))
	defer server.Close()

	src := NewNewsAPISource(config.NewsAPIConfig{Endpoint: server.URL + "/", APIKey: "secret", Country: "us"}, server.Client(), nil)

	got, err := src.Fetch(context.Background(), scanner.Query{Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 usable articles, got %d: %+v", len(got), got)
	}
	first := got[0]
	if first.Title != "Markets rally" || first.SourceName != "BBC News" || first.Description != "Stocks rose." {
		t.Fatalf("unexpected first article %+v", first)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published time %v", first.PublishedAt)
	}
	if got[1].PublishedAt != nil {
		t.Fatalf("unparseable time should be nil")
	}

	if _, err := src.Fetch(context.Background(), scanner.Query{Term: "climate change", Limit: 5}); err != nil {
		t.Fatalf("search: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 {
		t.Fatalf("expected 2 requests, got %v", paths)
	}
	if !strings.HasPrefix(paths[0], "/top-headlines?") || !strings.Contains(paths[0], "country=us") || !strings.Contains(paths[0], "pageSize=10") {
		t.Fatalf("unexpected latest request %s", paths[0])
	}
	if !strings.HasPrefix(paths[1], "/everything?") || !strings.Contains(paths[1], "q=climate+change") {
		t.Fatalf("unexpected search request %s", paths[1])
	}
}

func TestNewsAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/everything" {
			_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"too many requests"}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"slow down"}`))
	}))
	defer server.Close()

	src := NewNewsAPISource(config.NewsAPIConfig{Endpoint: server.URL, APIKey: "k"}, server.Client(), nil)
	if _, err := src.Fetch(context.Background(), scanner.Query{}); err == nil || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := src.Fetch(context.Background(), scanner.Query{Term: "x"}); err == nil || !strings.Contains(err.Error(), "rateLimited") {
		t.Fatalf("expected api error, got %v", err)
	}

	noKey := NewNewsAPISource(config.NewsAPIConfig{Endpoint: server.URL}, server.Client(), nil)
	if _, err := noKey.Fetch(context.Background(), scanner.Query{}); !errors.Is(err, errMissingAPIKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

const rssPayload = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Wire</title>
  <link>https://wire.example.com</link>
  <item>
    <title>Central bank holds rates</title>
    <link>https://wire.example.com/rates</link>
    <description>&lt;p&gt;The &lt;b&gt;bank&lt;/b&gt; kept rates unchanged.&lt;/p&gt;</description>
    <pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Local team wins final</title>
    <link>https://wire.example.com/final</link>
    <description>A late goal settled the match.</description>
  </item>
  <item>
    <title>Missing link</title>
    <description>Dropped.</description>
  </item>
</channel>
</rss>`

func TestRSSSource(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssPayload))
	}))
	defer server.Close()

	feeds := []config.FeedConfig{
		{Name: "Broken", URL: server.URL + "/broken"},
		{Name: "", URL: server.URL + "/feed"},
	}
	src := NewRSSSource(feeds, server.Client(), time.Second, nil)

	got, err := src.Fetch(context.Background(), scanner.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Description != "The bank kept rates unchanged." {
		t.Fatalf("markup not stripped: %q", got[0].Description)
	}
	if got[0].SourceName != "Example Wire" {
		t.Fatalf("expected feed title as source name, got %q", got[0].SourceName)
	}
	if got[0].PublishedAt == nil || got[1].PublishedAt != nil {
		t.Fatalf("unexpected publish times %v %v", got[0].PublishedAt, got[1].PublishedAt)
	}

	found, err := src.Fetch(context.Background(), scanner.Query{Term: "GOAL"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].URL != "https://wire.example.com/final" {
		t.Fatalf("unexpected search result %+v", found)
	}

	limited, err := src.Fetch(context.Background(), scanner.Query{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit not honoured: %d %v", len(limited), err)
	}

	allBroken := NewRSSSource(feeds[:1], server.Client(), time.Second, nil)
	if _, err := allBroken.Fetch(context.Background(), scanner.Query{}); err == nil {
		t.Fatalf("expected error when every feed fails")
	}
}

type stubSource struct {
	name     string
	articles []domain.CandidateArticle
	err      error
	delay    time.Duration
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(ctx context.Context, q scanner.Query) ([]domain.CandidateArticle, error) {
	time.Sleep(s.delay)
	return s.articles, s.err
}

func article(url string) domain.CandidateArticle {
	return domain.CandidateArticle{Title: url, URL: url}
}

func TestStrategySourceMergesInConfigOrder(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry()
	reg.Register(stubSource{name: "slow", delay: 20 * time.Millisecond, articles: []domain.CandidateArticle{article("https://a"), article("https://b")}})
	reg.Register(stubSource{name: "fast", articles: []domain.CandidateArticle{article("https://b"), article("https://c")}})
	reg.Register(stubSource{name: "down", err: errors.New("timeout")})

	src := NewStrategySource(reg, []string{"slow", "down", "fast", "missing"}, 0, nil)
	got, err := src.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}

	want := []string{"https://a", "https://b", "https://c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d articles, got %d", len(want), len(got))
	}
	for i, url := range want {
		if got[i].URL != url {
			t.Fatalf("position %d: got %s want %s", i, got[i].URL, url)
		}
	}

	limited := NewStrategySource(reg, []string{"slow", "fast"}, 2, nil)
	got, err = limited.Search(context.Background(), "anything")
	if err != nil || len(got) != 2 {
		t.Fatalf("limit not honoured: %d %v", len(got), err)
	}
}

func TestStrategySourceAllFailing(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry()
	reg.Register(stubSource{name: "down", err: errors.New("connection refused")})

	src := NewStrategySource(reg, []string{"down", "missing"}, 10, nil)
	if _, err := src.Latest(context.Background()); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	empty := NewStrategySource(reg, nil, 10, nil)
	if _, err := empty.Latest(context.Background()); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
