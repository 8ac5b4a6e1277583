package domain

import "time"

// CandidateArticle is a news item returned by a search provider before content extraction.
type CandidateArticle struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceName  string     `json:"source_name"`
	PublishedAt *time.Time `json:"published_at"`
	Description string     `json:"description"`
}

// Strategy records which extraction heuristic produced a body.
type Strategy string

const (
	StrategySemanticTag      Strategy = "semantic-tag"
	StrategyCSSSelector      Strategy = "css-selector"
	StrategyDensityHeuristic Strategy = "density-heuristic"
	StrategyNone             Strategy = "none"
)

// ExtractionResult is the outcome of scraping one article page.
// BodyText is empty only when every strategy failed or the fetch itself failed.
type ExtractionResult struct {
	BodyText string
	Strategy Strategy
	// Err keeps the failure reason for logging; it is never surfaced to callers.
	Err error
}

// SummarySource tells where SummaryResult.Text came from.
type SummarySource string

const (
	SummaryFromModel       SummarySource = "model"
	SummaryFromDescription SummarySource = "fallback-description"
	SummaryFromPlaceholder SummarySource = "fallback-placeholder"
)

// SummaryResult always carries non-empty text.
type SummaryResult struct {
	Text   string        `json:"summary_text"`
	Source SummarySource `json:"source"`
}

// IsFallback reports whether the summary was produced without the model.
func (s SummaryResult) IsFallback() bool {
	return s.Source != SummaryFromModel
}

// SummarizedArticle is the unit returned to the API layer.
type SummarizedArticle struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceName  string     `json:"source_name"`
	PublishedAt *time.Time `json:"published_at"`
	Description string     `json:"description,omitempty"`
	SummaryText string     `json:"summary_text"`

	Strategy      Strategy      `json:"-"`
	SummarySource SummarySource `json:"-"`
}

// Merge combines a candidate with its summary.
func Merge(c CandidateArticle, extraction ExtractionResult, summary SummaryResult) SummarizedArticle {
	return SummarizedArticle{
		Title:         c.Title,
		URL:           c.URL,
		SourceName:    c.SourceName,
		PublishedAt:   c.PublishedAt,
		Description:   c.Description,
		SummaryText:   summary.Text,
		Strategy:      extraction.Strategy,
		SummarySource: summary.Source,
	}
}

// SavedArticle is a summarized article persisted for a user.
type SavedArticle struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"-"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceName  string     `json:"source_name"`
	SummaryText string     `json:"summary_text"`
	PublishedAt *time.Time `json:"published_at"`
	SavedAt     time.Time  `json:"saved_at"`
}
