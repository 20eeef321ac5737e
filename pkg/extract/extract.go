// Package extract reduces raw page HTML to clean article content: a
// noise-stripped HTML fragment and a normalized plain-text rendering. All
// functions are total and idempotent; markup the parser cannot make sense of
// yields an empty string, never an error.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// containerSelectors is the ordered list of main-content containers. The
// first match wins; no match keeps the whole pruned document.
var containerSelectors = []string{
	"article",
	".article-content",
	".article-body",
	".content",
	".post-content",
	".entry-content",
	"main",
}

// noiseSelector matches elements that never carry article content.
const noiseSelector = "script, style, noscript, iframe, nav, footer, header"

// strictNoiseSelector additionally matches the clutter that matters when
// scraping arbitrary pages: sidebars, ad slots, social widgets, comments.
const strictNoiseSelector = `aside, [class*="advert"], [class*="-ad-"], [id*="advert"], ` +
	`[class*="social"], [class*="share"], [class*="comment"], [class*="related"], [class*="newsletter"]`

// Content is the normalized result of one page fetch.
type Content struct {
	CleanedHTML string
	Text        string
	URL         string
	FetchedAt   time.Time
	WordCount   int
}

// New cleans rawHTML and derives the plain-text rendering and word count.
func New(url, rawHTML string, fetchedAt time.Time) Content {
	cleaned := Clean(rawHTML)
	text := ToText(cleaned)
	return Content{
		CleanedHTML: cleaned,
		Text:        text,
		URL:         url,
		FetchedAt:   fetchedAt,
		WordCount:   len(strings.Fields(text)),
	}
}

// Clean strips scripts, styles, iframes, and page chrome from rawHTML and
// narrows to the first main-content container when one exists.
func Clean(rawHTML string) string {
	return clean(rawHTML, false)
}

// CleanStrict is Clean plus removal of sidebars, ad slots, social widgets,
// and comment sections. Meant for ad-hoc pages where chrome removal alone
// leaves too much noise.
func CleanStrict(rawHTML string) string {
	return clean(rawHTML, true)
}

func clean(rawHTML string, strict bool) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	doc.Find(noiseSelector).Remove()
	if strict {
		doc.Find(strictNoiseSelector).Remove()
	}

	for _, sel := range containerSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			out, err := goquery.OuterHtml(node)
			if err != nil {
				break
			}
			return out
		}
	}

	root := doc.Find("html").First()
	if root.Length() == 0 {
		return ""
	}
	out, err := goquery.OuterHtml(root)
	if err != nil {
		return ""
	}
	return out
}

// ToText renders rawHTML as plain text: visible text nodes joined by single
// spaces, runs of whitespace collapsed, non-breaking spaces normalized.
func ToText(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return normalizeSpace(b.String())
}

// normalizeSpace collapses all whitespace, including non-breaking spaces, to
// single spaces and trims the ends.
func normalizeSpace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
