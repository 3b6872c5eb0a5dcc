package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Article is the extractor's output: title, section headings in document
// order, and cleaned body text. Produced once per fetch, immutable after.
type Article struct {
	Title    string
	Sections []string
	Body     string
}

// cleanSelectors is the fixed boilerplate rule set removed before text
// extraction, so citation markers and navigation chrome never pollute quiz
// content.
var cleanSelectors = []string{
	"sup.reference",
	".mw-editsection",
	".infobox",
	".navbox",
	".vertical-navbox",
	".hatnote",
	".toc",
	".thumb",
	".reflist",
	"table",
	".metadata",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses whitespace runs to single spaces and trims
// the ends. Body text is always normalized this way before fingerprinting.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Extract deterministically parses raw markup into an Article.
// A missing content root yields an empty body; callers must treat bodies
// below their minimum length as extraction failure.
func Extract(html string) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Article{}, err
	}

	title := NormalizeWhitespace(doc.Find("h1.firstHeading").First().Text())
	if title == "" {
		title = "Untitled"
	}

	root := doc.Find("#mw-content-text .mw-parser-output").First()
	if root.Length() == 0 {
		return Article{Title: title}, nil
	}

	for _, sel := range cleanSelectors {
		root.Find(sel).Remove()
	}

	var sections []string
	var paragraphs []string

	root.Children().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "h2", "h3":
			heading := NormalizeWhitespace(strings.ReplaceAll(s.Text(), "[edit]", ""))
			if heading != "" {
				sections = append(sections, heading)
			}
		case "p":
			if text := paragraphText(s); text != "" {
				paragraphs = append(paragraphs, text)
			}
		}
	})

	// Some articles nest their prose below wrapper divs; scan the whole
	// subtree when direct children produced nothing.
	if len(paragraphs) == 0 {
		root.Find("p").Each(func(_ int, s *goquery.Selection) {
			if text := paragraphText(s); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
	}

	return Article{
		Title:    title,
		Sections: sections,
		Body:     NormalizeWhitespace(strings.Join(paragraphs, " ")),
	}, nil
}

// paragraphText returns the normalized text of a paragraph node, dropping
// known non-prose markers.
func paragraphText(s *goquery.Selection) string {
	text := NormalizeWhitespace(s.Text())
	if strings.HasPrefix(text, "Coordinates:") {
		return ""
	}
	return text
}

// ExtractReadable is the generic fallback extractor, used when structural
// extraction yields a body too short to work with. It trades section
// headings for readability's boilerplate detection.
func ExtractReadable(html, pageURL string) (Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Article{}, err
	}

	parsed, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return Article{}, err
	}

	title := NormalizeWhitespace(parsed.Title)
	if title == "" {
		title = "Untitled"
	}

	return Article{
		Title: title,
		Body:  NormalizeWhitespace(parsed.TextContent),
	}, nil
}
