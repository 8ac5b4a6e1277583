package extractor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped subtrees never contribute text, tags or candidates.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Aside:    true,
	atom.Footer:   true,
	atom.Form:     true,
	atom.Button:   true,
	atom.Select:   true,
}

// blockStats summarises the visible content below one element.
type blockStats struct {
	text      string
	chars     int
	linkChars int
	tags      int
}

// nonLinkChars is the amount of prose that is not anchor text.
func (b blockStats) nonLinkChars() int {
	n := b.chars - b.linkChars
	if n < 0 {
		return 0
	}
	return n
}

// linkDensity is the share of the text that sits inside anchors.
func (b blockStats) linkDensity() float64 {
	if b.chars == 0 {
		return 0
	}
	return float64(b.linkChars) / float64(b.chars)
}

// collect walks the subtree of n and returns its normalized text together with
// the signals used by the density heuristic. Text nodes are joined with a space
// so adjacent blocks do not run together.
func collect(n *html.Node) blockStats {
	var (
		sb    strings.Builder
		stats blockStats
	)

	var walk func(node *html.Node, inLink bool)
	walk = func(node *html.Node, inLink bool) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				chunk := normalizeSpace(c.Data)
				if chunk == "" {
					continue
				}
				sb.WriteString(chunk)
				sb.WriteByte(' ')
				if inLink {
					stats.linkChars += utf8.RuneCountInString(chunk)
				}
			case html.ElementNode:
				if skipped[c.DataAtom] {
					continue
				}
				stats.tags++
				walk(c, inLink || c.DataAtom == atom.A)
			}
		}
	}
	walk(n, n.DataAtom == atom.A)

	stats.text = normalizeSpace(sb.String())
	stats.chars = utf8.RuneCountInString(stats.text)
	return stats
}

// insideBoilerplate reports whether any ancestor of n is a skipped element.
func insideBoilerplate(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && skipped[p.DataAtom] {
			return true
		}
	}
	return false
}

// normalizeSpace collapses whitespace runs into single spaces and trims the ends.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
