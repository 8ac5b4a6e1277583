package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/singleflight"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

var errNoContent = errors.New("no strategy found enough content")

const defaultFetchTimeout = 10 * time.Second

// Extractor fetches article pages and runs the strategy chain over them.
type Extractor struct {
	fetcher    *pageFetcher
	strategies []Strategy
	logger     *slog.Logger
	timeout    time.Duration
	inflight   singleflight.Group
}

var _ ports.Extractor = (*Extractor)(nil)

// New wires an HTTP client (a timeout-bound one is built when nil) with the
// default strategy chain.
func New(client *http.Client, cfg config.ExtractorConfig, log *slog.Logger) *Extractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Extractor{
		fetcher:    newPageFetcher(client, timeout, cfg.UserAgents, cfg.MaxBodyBytes),
		strategies: DefaultStrategies(cfg.MinLength),
		logger:     logging.OrDiscard(log),
		timeout:    timeout,
	}
}

// Extract downloads url and returns its main body text. It never fails:
// network, status and parse errors end up in the result's Err with
// strategy "none". Concurrent calls for the same URL share one fetch; the
// shared fetch is bound by the extractor timeout only, so a caller that gives
// up does not fail the others waiting on it.
func (e *Extractor) Extract(ctx context.Context, url string) domain.ExtractionResult {
	ch := e.inflight.DoChan(url, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		return e.extract(fetchCtx, url), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.ExtractionResult)
	case <-ctx.Done():
		return domain.ExtractionResult{
			Strategy: domain.StrategyNone,
			Err:      fmt.Errorf("%w: %w", domain.ErrFetch, ctx.Err()),
		}
	}
}

func (e *Extractor) extract(ctx context.Context, url string) domain.ExtractionResult {
	p, err := e.fetcher.fetch(ctx, url)
	if err != nil {
		e.logger.Warn("fetch article", "url", url, "error", err)
		return domain.ExtractionResult{Strategy: domain.StrategyNone, Err: err}
	}

	result := e.ExtractDocument(bytes.NewReader(p.body), p.contentType)
	if result.Err != nil {
		e.logger.Warn("extract article", "url", url, "error", result.Err)
	} else {
		e.logger.Debug("extracted article", "url", url, "strategy", result.Strategy, "chars", len(result.BodyText))
	}
	return result
}

// ExtractDocument applies the strategy chain to raw HTML. The outcome depends
// only on the input bytes.
func (e *Extractor) ExtractDocument(r io.Reader, contentType string) domain.ExtractionResult {
	if contentType != "" {
		if decoded, err := charset.NewReader(r, contentType); err == nil {
			r = decoded
		}
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.ExtractionResult{
			Strategy: domain.StrategyNone,
			Err:      fmt.Errorf("%w: %v", domain.ErrParse, err),
		}
	}

	for _, strategy := range e.strategies {
		if text, ok := strategy.Find(doc); ok {
			return domain.ExtractionResult{BodyText: text, Strategy: strategy.Name()}
		}
	}

	return domain.ExtractionResult{
		Strategy: domain.StrategyNone,
		Err:      errNoContent,
	}
}
