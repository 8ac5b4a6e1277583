package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/scanner"
)

// RSSName is the registry name of the feed source.
const RSSName = "rss"

const feedUserAgent = "NewsDigest/1.0 (+feed reader)"

// RSSSource reads the configured RSS/Atom feeds. Searches filter feed items
// by a case-insensitive match on title or description.
type RSSSource struct {
	feeds  []config.FeedConfig
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ scanner.Source = (*RSSSource)(nil)

// NewRSSSource builds a feed reader. A nil http.Client gets one bound by timeout.
func NewRSSSource(feeds []config.FeedConfig, client *http.Client, timeout time.Duration, log *slog.Logger) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = feedUserAgent

	return &RSSSource{feeds: feeds, parser: parser, logger: logging.OrDiscard(log)}
}

// Name implements scanner.Source.
func (s *RSSSource) Name() string {
	return RSSName
}

// Fetch reads every feed in configuration order. A failing feed is skipped;
// the call fails only when no feed could be read.
func (s *RSSSource) Fetch(ctx context.Context, q scanner.Query) ([]domain.CandidateArticle, error) {
	if len(s.feeds) == 0 {
		return nil, errors.New("rss: no feeds configured")
	}

	var (
		articles []domain.CandidateArticle
		failures []error
	)
	for _, feedCfg := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			s.logger.Warn("read feed", "feed", feedCfg.Name, "url", feedCfg.URL, "error", err)
			failures = append(failures, fmt.Errorf("feed %s: %w", feedCfg.Name, err))
			continue
		}
		articles = append(articles, feedArticles(feed, feedCfg.Name, q.Term)...)
		if q.Limit > 0 && len(articles) >= q.Limit {
			articles = articles[:q.Limit]
			break
		}
	}

	if len(failures) == len(s.feeds) {
		return nil, errors.Join(failures...)
	}
	return articles, nil
}

func feedArticles(feed *gofeed.Feed, name, term string) []domain.CandidateArticle {
	if name == "" {
		name = strings.TrimSpace(feed.Title)
	}
	needle := strings.ToLower(strings.TrimSpace(term))

	articles := make([]domain.CandidateArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || !validArticleURL(link) {
			continue
		}

		description := plainText(item.Description)
		if description == "" {
			description = plainText(item.Content)
		}

		if needle != "" &&
			!strings.Contains(strings.ToLower(title), needle) &&
			!strings.Contains(strings.ToLower(description), needle) {
			continue
		}

		var published *time.Time
		switch {
		case item.PublishedParsed != nil:
			t := item.PublishedParsed.UTC()
			published = &t
		case item.UpdatedParsed != nil:
			t := item.UpdatedParsed.UTC()
			published = &t
		}

		articles = append(articles, domain.CandidateArticle{
			Title:       title,
			URL:         link,
			SourceName:  name,
			PublishedAt: published,
			Description: description,
		})
	}
	return articles
}

// plainText strips markup that feeds commonly embed in descriptions.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
