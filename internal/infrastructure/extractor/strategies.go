package extractor

import (
	"math"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
)

// Strategy is one heuristic for locating the main body of a document.
// Implementations must be deterministic for identical input.
type Strategy interface {
	Name() domain.Strategy
	Find(doc *goquery.Document) (string, bool)
}

var semanticSelectors = []string{
	"article",
	`[role="article"]`,
	"main",
	`[role="main"]`,
}

// bodySelectors lists "article body" containers used by common publishing platforms.
var bodySelectors = []string{
	`[itemprop="articleBody"]`,
	"div.article-body",
	"div.article-content",
	"div.story-content",
	"div.story-body",
	"div#main-content",
	"div#content",
	"div.post-content",
	"div.entry-content",
	"div.content-body",
}

const (
	// densityCandidates are the block-level containers scored by the density heuristic.
	densityCandidates = "body, div, section, td"
	// maxLinkDensity rejects containers that are mostly anchor text.
	maxLinkDensity = 0.5
)

// DefaultStrategies returns the semantic → selector → density chain.
func DefaultStrategies(minLength int) []Strategy {
	return []Strategy{
		SelectorStrategy{Kind: domain.StrategySemanticTag, Selectors: semanticSelectors, MinLength: minLength},
		SelectorStrategy{Kind: domain.StrategyCSSSelector, Selectors: bodySelectors, MinLength: minLength},
		DensityStrategy{MinLength: minLength},
	}
}

// SelectorStrategy tries each selector in order and returns the first matching
// element whose text reaches MinLength.
type SelectorStrategy struct {
	Kind      domain.Strategy
	Selectors []string
	MinLength int
}

// Name identifies the strategy in extraction results.
func (s SelectorStrategy) Name() domain.Strategy {
	return s.Kind
}

// Find walks the selectors in priority order, matches in document order.
func (s SelectorStrategy) Find(doc *goquery.Document) (string, bool) {
	for _, selector := range s.Selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			node := sel.Get(0)
			if insideBoilerplate(node) {
				return true
			}
			stats := collect(node)
			if stats.chars >= s.MinLength {
				found = stats.text
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// DensityStrategy scores every block container by how much non-link prose it
// holds relative to its markup and picks the best one above MinLength.
type DensityStrategy struct {
	MinLength int
}

// Name identifies the strategy in extraction results.
func (DensityStrategy) Name() domain.Strategy {
	return domain.StrategyDensityHeuristic
}

// Find returns the text of the highest scoring container. Ties keep the
// earlier container in document order; blocks made only of links never win.
func (d DensityStrategy) Find(doc *goquery.Document) (string, bool) {
	var (
		best      string
		bestScore float64
	)

	doc.Find(densityCandidates).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if insideBoilerplate(node) {
			return
		}
		stats := collect(node)
		if stats.chars < d.MinLength || stats.linkDensity() > maxLinkDensity {
			return
		}
		if score := densityScore(stats); score > bestScore {
			bestScore = score
			best = stats.text
		}
	})

	return best, best != ""
}

// densityScore favours prose-heavy blocks: anchor text is discounted and the
// square root of the descendant tag count damps wrappers that merely contain
// the article next to navigation or ads.
func densityScore(stats blockStats) float64 {
	return float64(stats.nonLinkChars()) / math.Sqrt(float64(1+stats.tags))
}
