package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// NewsFetcher pulls candidate articles from upstream news providers.
type NewsFetcher interface {
	Latest(ctx context.Context) ([]domain.CandidateArticle, error)
	Search(ctx context.Context, term string) ([]domain.CandidateArticle, error)
}

// Extractor recovers the main body text of an article page. It never fails;
// failures are recorded inside the result.
type Extractor interface {
	Extract(ctx context.Context, url string) domain.ExtractionResult
}

// Summarizer turns body text into a short summary, falling back to the
// description or a placeholder. It never fails.
type Summarizer interface {
	Summarize(ctx context.Context, text, description string) domain.SummaryResult
}

// SummaryModel is a loaded summarization backend.
type SummaryModel interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ModelLoader builds the summarization backend. It is called at most once per process.
type ModelLoader func(ctx context.Context) (SummaryModel, error)

// SummaryCache stores model summaries per article URL.
type SummaryCache interface {
	Get(ctx context.Context, url string) (domain.SummaryResult, bool, error)
	Put(ctx context.Context, url string, summary domain.SummaryResult) error
}

// ArticleRepository persists articles saved by users.
type ArticleRepository interface {
	Save(ctx context.Context, article domain.SavedArticle) (domain.SavedArticle, error)
	List(ctx context.Context, userID string) ([]domain.SavedArticle, error)
	Delete(ctx context.Context, userID string, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
