package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/extractor"
)

type fakeExtractor struct {
	bodies map[string]string
	delay  func(url string) time.Duration

	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) domain.ExtractionResult {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.delay != nil {
		select {
		case <-time.After(f.delay(url)):
		case <-ctx.Done():
			return domain.ExtractionResult{Strategy: domain.StrategyNone, Err: ctx.Err()}
		}
	}

	body, ok := f.bodies[url]
	if !ok {
		return domain.ExtractionResult{Strategy: domain.StrategyNone, Err: domain.ErrFetch}
	}
	return domain.ExtractionResult{BodyText: body, Strategy: domain.StrategySemanticTag}
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]domain.SummaryResult
}

func (c *memoryCache) Get(_ context.Context, url string) (domain.SummaryResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[url]
	return s, ok, nil
}

func (c *memoryCache) Put(_ context.Context, url string, s domain.SummaryResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]domain.SummaryResult{}
	}
	c.entries[url] = s
	return nil
}

func candidates(n int) []domain.CandidateArticle {
	out := make([]domain.CandidateArticle, n)
	for i := range out {
		out[i] = domain.CandidateArticle{
			Title:       fmt.Sprintf("Story %d", i),
			URL:         fmt.Sprintf("https://news.example.com/story-%d", i),
			SourceName:  "Example",
			Description: fmt.Sprintf("Teaser %d", i),
		}
	}
	return out
}

func TestRunPreservesOrderAndCoverage(t *testing.T) {
	t.Parallel()

	items := candidates(25)
	items = append(items, domain.CandidateArticle{Title: "Broken", URL: "not a url", Description: "Broken teaser"})

	bodies := map[string]string{}
	for i, c := range items[:25] {
		if i%3 != 0 {
			bodies[c.URL] = words(200)
		}
	}
	ext := &fakeExtractor{
		bodies: bodies,
		delay: func(url string) time.Duration {
			return time.Duration(len(url)%7) * time.Millisecond
		},
	}
	summarizer := NewSummaryService(loaderFor(&fakeModel{out: "model summary"}), testOptions(), nil)
	p := NewPipeline(PipelineDeps{Extractor: ext, Summarizer: summarizer, Workers: 4})

	got := p.Run(context.Background(), items)
	if len(got) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(got))
	}
	for i := range items {
		if got[i].URL != items[i].URL || got[i].Title != items[i].Title {
			t.Fatalf("result %d out of order: %s", i, got[i].URL)
		}
		if got[i].SummaryText == "" {
			t.Fatalf("result %d has empty summary", i)
		}
		_, extracted := bodies[items[i].URL]
		if extracted && got[i].SummarySource != domain.SummaryFromModel {
			t.Fatalf("result %d: expected model summary, got %s", i, got[i].SummarySource)
		}
		if !extracted && got[i].SummaryText != items[i].Description {
			t.Fatalf("result %d: expected description fallback, got %q", i, got[i].SummaryText)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{delay: func(string) time.Duration { return 15 * time.Millisecond }}
	p := NewPipeline(PipelineDeps{
		Extractor:  ext,
		Summarizer: NewSummaryService(nil, testOptions(), nil),
		Workers:    3,
	})

	p.Run(context.Background(), candidates(12))

	if peak := ext.peak.Load(); peak > 3 {
		t.Fatalf("expected at most 3 concurrent extractions, saw %d", peak)
	}
	if calls := ext.calls.Load(); calls != 12 {
		t.Fatalf("expected 12 extractions, got %d", calls)
	}
}

func TestRunUnreachableHostUsesDescription(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	unreachable := server.URL + "/story"
	server.Close()

	ext := extractor.New(nil, config.ExtractorConfig{Timeout: time.Second, MinLength: 200}, nil)
	description := "Officials confirmed the bridge will reopen next week after repairs finish."
	p := NewPipeline(PipelineDeps{
		Extractor:  ext,
		Summarizer: NewSummaryService(loaderFor(&fakeModel{out: "model summary"}), testOptions(), nil),
	})

	got := p.Run(context.Background(), []domain.CandidateArticle{{Title: "Bridge", URL: unreachable, Description: description}})
	if len(got) != 1 {
		t.Fatalf("expected one result, got %d", len(got))
	}
	if got[0].Strategy != domain.StrategyNone {
		t.Fatalf("expected strategy none, got %s", got[0].Strategy)
	}
	// The description is long enough for the model, so it becomes the model input.
	if got[0].SummarySource != domain.SummaryFromModel || got[0].SummaryText != "model summary" {
		t.Fatalf("expected description to be summarized, got %+v", got[0])
	}
}

func TestRunItemTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{delay: func(string) time.Duration { return time.Second }}
	p := NewPipeline(PipelineDeps{
		Extractor:   ext,
		Summarizer:  NewSummaryService(nil, testOptions(), nil),
		ItemTimeout: 20 * time.Millisecond,
	})

	start := time.Now()
	got := p.Run(context.Background(), candidates(2))
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("hung extraction stalled the batch")
	}
	for i, r := range got {
		if r.SummarySource != domain.SummaryFromDescription {
			t.Fatalf("result %d: expected description fallback, got %s", i, r.SummarySource)
		}
	}
}

func TestRunCancelledContextStillCoversEveryItem(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := &fakeExtractor{}
	p := NewPipeline(PipelineDeps{Extractor: ext, Summarizer: NewSummaryService(nil, testOptions(), nil)})

	got := p.Run(ctx, candidates(5))
	if len(got) != 5 {
		t.Fatalf("expected 5 results, got %d", len(got))
	}
	for i, r := range got {
		if r.SummaryText != fmt.Sprintf("Teaser %d", i) {
			t.Fatalf("result %d: unexpected summary %q", i, r.SummaryText)
		}
	}
	if ext.calls.Load() != 0 {
		t.Fatalf("cancelled batch should not extract")
	}
}

func TestRunCachesModelSummariesOnly(t *testing.T) {
	t.Parallel()

	items := candidates(2)
	ext := &fakeExtractor{bodies: map[string]string{items[0].URL: words(200)}}
	cache := &memoryCache{}
	p := NewPipeline(PipelineDeps{
		Extractor:  ext,
		Summarizer: NewSummaryService(loaderFor(&fakeModel{out: "cached summary"}), testOptions(), nil),
		Cache:      cache,
	})

	p.Run(context.Background(), items)
	if _, ok, _ := cache.Get(context.Background(), items[1].URL); ok {
		t.Fatalf("fallback summary must not be cached")
	}
	if calls := ext.calls.Load(); calls != 2 {
		t.Fatalf("expected 2 extractions, got %d", calls)
	}

	got := p.Run(context.Background(), items)
	if got[0].SummaryText != "cached summary" || got[0].SummarySource != domain.SummaryFromModel {
		t.Fatalf("expected cached summary, got %+v", got[0])
	}
	if calls := ext.calls.Load(); calls != 3 {
		t.Fatalf("cached item should skip extraction, total extractions %d", calls)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{Extractor: &fakeExtractor{}, Summarizer: NewSummaryService(nil, testOptions(), nil)})
	if got := p.Run(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}
