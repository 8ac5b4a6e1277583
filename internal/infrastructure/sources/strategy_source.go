package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/scanner"
)

// StrategySource implements ports.NewsFetcher via registered news sources.
type StrategySource struct {
	registry *scanner.Registry
	names    []string
	limit    int
	logger   *slog.Logger
}

var _ ports.NewsFetcher = (*StrategySource)(nil)

// NewStrategySource wires the source registry with the configured source names.
func NewStrategySource(reg *scanner.Registry, names []string, limit int, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		names:    names,
		limit:    limit,
		logger:   logging.OrDiscard(log),
	}
}

// Latest returns current headlines from every configured source.
func (s *StrategySource) Latest(ctx context.Context) ([]domain.CandidateArticle, error) {
	return s.fetch(ctx, scanner.Query{Limit: s.limit})
}

// Search returns articles matching term from every configured source.
func (s *StrategySource) Search(ctx context.Context, term string) ([]domain.CandidateArticle, error) {
	return s.fetch(ctx, scanner.Query{Term: term, Limit: s.limit})
}

// fetch queries all sources concurrently and merges their results in
// configuration order, dropping duplicate URLs. Failing sources are skipped;
// only a total failure is reported.
func (s *StrategySource) fetch(ctx context.Context, q scanner.Query) ([]domain.CandidateArticle, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("source registry is not configured")
	}
	if len(s.names) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", domain.ErrProviderUnavailable)
	}

	batches := make([][]domain.CandidateArticle, len(s.names))
	failures := make([]error, len(s.names))

	var g errgroup.Group
	for i, name := range s.names {
		g.Go(func() error {
			source, err := s.registry.Resolve(name)
			if err != nil {
				failures[i] = err
				return nil
			}
			batch, err := source.Fetch(ctx, q)
			if err != nil {
				failures[i] = fmt.Errorf("source %s: %w", name, err)
				return nil
			}
			batches[i] = batch
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged []domain.CandidateArticle
		failed []error
		seen   = map[string]bool{}
	)
	for i, name := range s.names {
		if failures[i] != nil {
			s.logger.Warn("news source failed", "source", name, "error", failures[i])
			failed = append(failed, failures[i])
			continue
		}
		s.logger.Debug("source produced articles", "source", name, "count", len(batches[i]))
		for _, article := range batches[i] {
			if seen[article.URL] {
				continue
			}
			seen[article.URL] = true
			merged = append(merged, article)
		}
	}

	if len(failed) == len(s.names) {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Join(failed...))
	}
	if s.limit > 0 && len(merged) > s.limit {
		merged = merged[:s.limit]
	}

	s.logger.Debug("strategy source done", "latest", q.Latest(), "total_articles", len(merged))
	return merged, nil
}
