package scrape

import (
	"strings"
	"testing"
)

const articleHTML = `<html><body>
<h1 class="firstHeading">Ada Lovelace</h1>
<div id="mw-content-text"><div class="mw-parser-output">
<div class="infobox">Born 1815</div>
<p>Ada Lovelace was an English mathematician.<sup class="reference">[1]</sup></p>
<h2>Early life<span class="mw-editsection">[edit]</span></h2>
<p>She was the daughter of Lord Byron.</p>
<h3>Education</h3>
<p>Coordinates: 51°N 0°W</p>
<table><tr><td>ignored</td></tr></table>
<div class="navbox">navigation</div>
</div></div>
</body></html>`

func TestExtract_TitleSectionsBody(t *testing.T) {
	article, err := Extract(articleHTML)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if article.Title != "Ada Lovelace" {
		t.Fatalf("unexpected title: %q", article.Title)
	}
	if len(article.Sections) != 2 || article.Sections[0] != "Early life" || article.Sections[1] != "Education" {
		t.Fatalf("unexpected sections: %v", article.Sections)
	}
	if strings.Contains(article.Sections[0], "[edit]") {
		t.Fatal("edit marker not stripped from heading")
	}
}

func TestExtract_RemovesBoilerplate(t *testing.T) {
	article, err := Extract(articleHTML)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if strings.Contains(article.Body, "[1]") {
		t.Fatal("reference marker survived cleaning")
	}
	if strings.Contains(article.Body, "Born 1815") {
		t.Fatal("infobox text survived cleaning")
	}
	if strings.Contains(article.Body, "Coordinates:") {
		t.Fatal("coordinates paragraph should be skipped")
	}
	if strings.Contains(article.Body, "ignored") {
		t.Fatal("table content survived cleaning")
	}
	if !strings.Contains(article.Body, "English mathematician") {
		t.Fatalf("prose missing from body: %q", article.Body)
	}
}

func TestExtract_MissingTitleDefaults(t *testing.T) {
	html := `<html><body><div id="mw-content-text"><div class="mw-parser-output">
	<p>Some text.</p></div></div></body></html>`

	article, err := Extract(html)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if article.Title != "Untitled" {
		t.Fatalf("expected Untitled, got %q", article.Title)
	}
}

func TestExtract_MissingContentRoot(t *testing.T) {
	html := `<html><body><h1 class="firstHeading">Stub</h1></body></html>`

	article, err := Extract(html)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if article.Body != "" {
		t.Fatalf("expected empty body, got %q", article.Body)
	}
	if article.Title != "Stub" {
		t.Fatalf("unexpected title: %q", article.Title)
	}
}

func TestExtract_DeepParagraphFallback(t *testing.T) {
	// Prose nested under a wrapper div, not a direct child of the root.
	html := `<html><body>
	<h1 class="firstHeading">Nested</h1>
	<div id="mw-content-text"><div class="mw-parser-output">
	<div class="wrapper"><p>Paragraph below a wrapper element.</p></div>
	</div></div></body></html>`

	article, err := Extract(html)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(article.Body, "wrapper element") {
		t.Fatalf("deep paragraph scan did not recover prose: %q", article.Body)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := NormalizeWhitespace("  a\tb\n\n c  ")
	if got != "a b c" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
