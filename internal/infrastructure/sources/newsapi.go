package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/scanner"
)

// NewsAPIName is the registry name of the newsapi.org source.
const NewsAPIName = "newsapi"

const removedTitle = "[Removed]"

var errMissingAPIKey = errors.New("newsapi: api key is not configured")

// NewsAPISource queries newsapi.org for headlines and keyword searches.
type NewsAPISource struct {
	endpoint string
	apiKey   string
	country  string
	client   *http.Client
	logger   *slog.Logger
}

var _ scanner.Source = (*NewsAPISource)(nil)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsAPISource builds the client. A nil http.Client gets one bound by cfg.Timeout.
func NewNewsAPISource(cfg config.NewsAPIConfig, client *http.Client, log *slog.Logger) *NewsAPISource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &NewsAPISource{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		country:  cfg.Country,
		client:   client,
		logger:   logging.OrDiscard(log),
	}
}

// Name implements scanner.Source.
func (s *NewsAPISource) Name() string {
	return NewsAPIName
}

// Fetch returns top headlines for an empty term and a keyword search otherwise.
func (s *NewsAPISource) Fetch(ctx context.Context, q scanner.Query) ([]domain.CandidateArticle, error) {
	if s.apiKey == "" {
		return nil, errMissingAPIKey
	}

	endpoint := s.requestURL(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	defer resp.Body.Close()

	var payload newsAPIResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && payload.Message != "" {
			return nil, fmt.Errorf("newsapi returned status %d: %s", resp.StatusCode, payload.Message)
		}
		return nil, fmt.Errorf("newsapi returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", decodeErr)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s %s", payload.Code, payload.Message)
	}

	articles := make([]domain.CandidateArticle, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		title := strings.TrimSpace(item.Title)
		if title == "" || title == removedTitle || !validArticleURL(item.URL) {
			continue
		}
		articles = append(articles, domain.CandidateArticle{
			Title:       title,
			URL:         item.URL,
			SourceName:  item.Source.Name,
			PublishedAt: parseTime(item.PublishedAt),
			Description: strings.TrimSpace(item.Description),
		})
	}

	s.logger.Debug("newsapi fetched", "latest", q.Latest(), "received", len(payload.Articles), "kept", len(articles))
	return articles, nil
}

func (s *NewsAPISource) requestURL(q scanner.Query) string {
	params := url.Values{}
	path := "/top-headlines"
	if q.Latest() {
		if s.country != "" {
			params.Set("country", s.country)
		}
	} else {
		path = "/everything"
		params.Set("q", q.Term)
		params.Set("sortBy", "publishedAt")
	}
	if q.Limit > 0 {
		params.Set("pageSize", strconv.Itoa(min(q.Limit, 100)))
	}
	return s.endpoint + path + "?" + params.Encode()
}

// validArticleURL accepts absolute http(s) URLs only.
func validArticleURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
