package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTitleLimit caps how many titles a single extraction returns.
const DefaultTitleLimit = 10

// TitleStrategy collects candidate headlines from a parsed listing page, in document order.
type TitleStrategy interface {
	Name() string
	Titles(doc *goquery.Document, limit int) []string
}

// HeadingTitles reads anchor text inside h2-h4 headings whose class carries a title-like
// token (entry-title, post-title, title).
type HeadingTitles struct {
	// MinLen is the exclusive lower bound on title length in characters.
	MinLen int
}

func (HeadingTitles) Name() string { return "heading_title_class" }

func (s HeadingTitles) Titles(doc *goquery.Document, limit int) []string {
	c := newCollector(limit)
	doc.Find("h2, h3, h4").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !hasTitleClass(heading.AttrOr("class", "")) {
			return true
		}
		title := normalizeTitle(heading.Find("a[href]").First().Text())
		if utf8.RuneCountInString(title) <= s.MinLen {
			return true
		}
		return c.add(title)
	})
	return c.titles
}

// SiteAnchorTitles reads the text of links pointing back at the listing's own host,
// skipping call-to-action boilerplate.
type SiteAnchorTitles struct {
	Host    string
	MinLen  int
	Exclude []string
}

func (SiteAnchorTitles) Name() string { return "site_anchor_text" }

func (s SiteAnchorTitles) Titles(doc *goquery.Document, limit int) []string {
	if s.Host == "" {
		return nil
	}
	prefixes := []string{"http://" + s.Host + "/", "https://" + s.Host + "/"}

	c := newCollector(limit)
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.ToLower(a.AttrOr("href", ""))
		if !hasAnyPrefix(href, prefixes) {
			return true
		}
		// Only plain-text anchors; wrapped images and markup are navigation chrome.
		if a.Children().Length() > 0 {
			return true
		}
		title := normalizeTitle(a.Text())
		if utf8.RuneCountInString(title) < s.MinLen || containsAny(title, s.Exclude) {
			return true
		}
		return c.add(title)
	})
	return c.titles
}

// NewsExtractor runs title strategies in order and keeps the first non-empty result.
type NewsExtractor struct {
	Strategies []TitleStrategy
	Limit      int
}

// NewNewsExtractor builds the default chain for a listing served from siteURL.
func NewNewsExtractor(siteURL string) *NewsExtractor {
	host := ""
	if u, err := url.Parse(siteURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	return &NewsExtractor{
		Strategies: []TitleStrategy{
			HeadingTitles{MinLen: 10},
			SiteAnchorTitles{Host: host, MinLen: 20, Exclude: []string{"Read More", "Click"}},
		},
		Limit: DefaultTitleLimit,
	}
}

// Titles returns up to Limit distinct titles in encounter order. Unparseable input
// yields nil.
func (e *NewsExtractor) Titles(html string) []string {
	titles, _ := e.TitlesWithStrategy(html)
	return titles
}

// TitlesWithStrategy also reports which strategy produced the titles.
func (e *NewsExtractor) TitlesWithStrategy(html string) ([]string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, ""
	}
	limit := e.Limit
	if limit <= 0 {
		limit = DefaultTitleLimit
	}
	for _, s := range e.Strategies {
		if titles := s.Titles(doc, limit); len(titles) > 0 {
			return titles, s.Name()
		}
	}
	return nil, ""
}

type collector struct {
	limit  int
	seen   map[string]struct{}
	titles []string
}

func newCollector(limit int) *collector {
	return &collector{limit: limit, seen: make(map[string]struct{})}
}

// add keeps title if unseen and reports whether collection should continue.
func (c *collector) add(title string) bool {
	if _, ok := c.seen[title]; !ok {
		c.seen[title] = struct{}{}
		c.titles = append(c.titles, title)
	}
	return len(c.titles) < c.limit
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasTitleClass(class string) bool {
	for _, token := range strings.Fields(strings.ToLower(class)) {
		if strings.Contains(token, "title") {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
