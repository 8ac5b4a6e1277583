package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/scanner"
)

// ListingName is the registry name of the section-page scraper.
const ListingName = "listing"

const (
	defaultItemSelector        = "article"
	defaultTitleSelector       = "h1, h2, h3"
	defaultLinkSelector        = "a[href]"
	defaultDescriptionSelector = "p"
	listingUserAgent           = "NewsDigest/1.0"
)

var dateExpr = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2})?(Z|[+-]\d{2}:\d{2})?)?`)

// ListingSource crawls configured news-site section pages and turns each
// headline block into a candidate article.
type ListingSource struct {
	client *http.Client
	sites  []config.SiteConfig
	logger *slog.Logger
}

var _ scanner.Source = (*ListingSource)(nil)

// NewListingSource wires an HTTP client; a nil client gets one bound by timeout.
func NewListingSource(sites []config.SiteConfig, client *http.Client, timeout time.Duration, log *slog.Logger) *ListingSource {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &ListingSource{client: client, sites: sites, logger: logging.OrDiscard(log)}
}

// Name identifies the strategy inside the registry.
func (l *ListingSource) Name() string {
	return ListingName
}

// Fetch walks through each site page and returns its headlines. A search
// keeps items whose title or teaser contains the term.
func (l *ListingSource) Fetch(ctx context.Context, q scanner.Query) ([]domain.CandidateArticle, error) {
	if len(l.sites) == 0 {
		return nil, errors.New("listing: no sites configured")
	}

	var (
		results  []domain.CandidateArticle
		failures []error
		seen     = map[string]struct{}{}
	)
	for _, site := range l.sites {
		doc, base, err := l.fetchDocument(ctx, site.URL)
		if err != nil {
			l.logger.Warn("scan site", "site", site.Name, "error", err)
			failures = append(failures, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}

		for _, article := range extractListing(doc, base, site, q.Term) {
			if _, ok := seen[article.URL]; ok {
				continue
			}
			seen[article.URL] = struct{}{}
			results = append(results, article)
		}
		if q.Limit > 0 && len(results) >= q.Limit {
			return results[:q.Limit], nil
		}
	}

	if len(failures) == len(l.sites) {
		return nil, errors.Join(failures...)
	}
	return results, nil
}

func (l *ListingSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return nil, nil, fmt.Errorf("invalid site url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", listingUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("site returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, base, nil
}

func extractListing(doc *goquery.Document, base *url.URL, site config.SiteConfig, term string) []domain.CandidateArticle {
	itemSel := orDefault(site.Item, defaultItemSelector)
	needle := strings.ToLower(strings.TrimSpace(term))

	var collected []domain.CandidateArticle
	doc.Find(itemSel).Each(func(_ int, item *goquery.Selection) {
		article, ok := parseItem(item, base, site)
		if !ok {
			return
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(article.Title), needle) &&
			!strings.Contains(strings.ToLower(article.Description), needle) {
			return
		}
		collected = append(collected, article)
	})
	return collected
}

func parseItem(item *goquery.Selection, base *url.URL, site config.SiteConfig) (domain.CandidateArticle, bool) {
	link := item.Find(orDefault(site.Link, defaultLinkSelector)).First()
	href, ok := link.Attr("href")
	if !ok {
		return domain.CandidateArticle{}, false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return domain.CandidateArticle{}, false
	}
	resolved := base.ResolveReference(ref)
	if !validArticleURL(resolved.String()) {
		return domain.CandidateArticle{}, false
	}

	title := normalize(item.Find(orDefault(site.Title, defaultTitleSelector)).First().Text())
	if title == "" {
		title = normalize(link.Text())
	}
	if title == "" {
		return domain.CandidateArticle{}, false
	}

	source := site.Name
	if source == "" {
		source = base.Host
	}

	return domain.CandidateArticle{
		Title:       title,
		URL:         resolved.String(),
		SourceName:  source,
		PublishedAt: itemTime(item),
		Description: normalize(item.Find(orDefault(site.Description, defaultDescriptionSelector)).First().Text()),
	}, true
}

// itemTime reads a <time datetime> attribute, falling back to a date in the item text.
func itemTime(item *goquery.Selection) *time.Time {
	raw, _ := item.Find("time[datetime]").First().Attr("datetime")
	if match := dateExpr.FindString(raw); match != "" {
		raw = match
	} else {
		raw = dateExpr.FindString(item.Text())
	}
	if raw == "" {
		return nil
	}

	// Zone-less timestamps are read as UTC.
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
