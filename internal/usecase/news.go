package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

// NewsService answers the latest and search queries: candidates come from the
// fetcher and are summarized by the pipeline.
type NewsService struct {
	fetcher  ports.NewsFetcher
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewNewsService constructs the query use case.
func NewNewsService(fetcher ports.NewsFetcher, pipeline *Pipeline, log *slog.Logger) *NewsService {
	return &NewsService{fetcher: fetcher, pipeline: pipeline, logger: logging.OrDiscard(log)}
}

// Latest summarizes the current headlines.
func (s *NewsService) Latest(ctx context.Context) ([]domain.SummarizedArticle, error) {
	candidates, err := s.fetcher.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest: %w", err)
	}
	s.logger.Debug("latest candidates", "count", len(candidates))
	return s.pipeline.Run(ctx, candidates), nil
}

// Search summarizes the articles matching term. A blank term is rejected
// with domain.ErrEmptyQuery.
func (s *NewsService) Search(ctx context.Context, term string) ([]domain.SummarizedArticle, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ErrEmptyQuery
	}

	candidates, err := s.fetcher.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	s.logger.Debug("search candidates", "term", term, "count", len(candidates))
	return s.pipeline.Run(ctx, candidates), nil
}
