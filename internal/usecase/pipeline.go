package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

const (
	defaultWorkers     = 6
	defaultItemTimeout = 45 * time.Second
)

// PipelineDeps wires the driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Extractor  ports.Extractor
	Summarizer ports.Summarizer
	// Cache is optional.
	Cache  ports.SummaryCache
	Logger *slog.Logger

	Workers     int
	ItemTimeout time.Duration
}

// Pipeline turns candidate articles into summarized ones.
type Pipeline struct {
	extractor   ports.Extractor
	summarizer  ports.Summarizer
	cache       ports.SummaryCache
	logger      *slog.Logger
	workers     int
	itemTimeout time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		extractor:   deps.Extractor,
		summarizer:  deps.Summarizer,
		cache:       deps.Cache,
		logger:      logging.OrDiscard(deps.Logger),
		workers:     deps.Workers,
		itemTimeout: deps.ItemTimeout,
	}
	if p.workers <= 0 {
		p.workers = defaultWorkers
	}
	if p.itemTimeout <= 0 {
		p.itemTimeout = defaultItemTimeout
	}
	return p
}

// Run processes candidates on a bounded worker pool and returns exactly one
// SummarizedArticle per candidate, in input order. Item failures degrade to
// fallback summaries; a cancelled ctx abandons extraction but still fills
// every slot.
func (p *Pipeline) Run(ctx context.Context, candidates []domain.CandidateArticle) []domain.SummarizedArticle {
	results := make([]domain.SummarizedArticle, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	batch := uuid.NewString()
	started := time.Now()
	log := p.logger.With("batch", batch)

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, candidate := range candidates {
		g.Go(func() error {
			results[i] = p.process(ctx, log, candidate)
			return nil
		})
	}
	_ = g.Wait()

	fallbacks := 0
	for _, r := range results {
		if r.SummarySource != domain.SummaryFromModel {
			fallbacks++
		}
	}
	log.Info("batch processed",
		"articles", len(results),
		"fallbacks", fallbacks,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return results
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, c domain.CandidateArticle) domain.SummarizedArticle {
	if ctx.Err() != nil {
		return domain.Merge(c, domain.ExtractionResult{Strategy: domain.StrategyNone, Err: ctx.Err()},
			p.summarizer.Summarize(ctx, "", c.Description))
	}

	itemCtx, cancel := context.WithTimeout(ctx, p.itemTimeout)
	defer cancel()

	if cached, ok := p.lookup(itemCtx, log, c.URL); ok {
		return domain.Merge(c, domain.ExtractionResult{Strategy: domain.StrategyNone}, cached)
	}

	extraction := p.extractor.Extract(itemCtx, c.URL)

	input := extraction.BodyText
	if input == "" {
		input = c.Description
	}
	summary := p.summarizer.Summarize(itemCtx, input, c.Description)

	if !summary.IsFallback() {
		p.store(itemCtx, log, c.URL, summary)
	}

	log.Debug("article processed",
		"url", c.URL,
		"strategy", extraction.Strategy,
		"summary_source", summary.Source)

	return domain.Merge(c, extraction, summary)
}

func (p *Pipeline) lookup(ctx context.Context, log *slog.Logger, url string) (domain.SummaryResult, bool) {
	if p.cache == nil || url == "" {
		return domain.SummaryResult{}, false
	}
	summary, ok, err := p.cache.Get(ctx, url)
	if err != nil {
		log.Warn("summary cache get", "url", url, "error", err)
		return domain.SummaryResult{}, false
	}
	return summary, ok
}

func (p *Pipeline) store(ctx context.Context, log *slog.Logger, url string, summary domain.SummaryResult) {
	if p.cache == nil || url == "" {
		return
	}
	if err := p.cache.Put(ctx, url, summary); err != nil {
		log.Warn("summary cache put", "url", url, "error", err)
	}
}
