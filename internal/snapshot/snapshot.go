// Package snapshot reads saved result pages so the classification rule can
// be checked against them without a browser.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/go-homedir"
)

// Page is the text content of a saved HTML document.
type Page struct {
	Title string
	Body  string
}

// Extract parses an HTML document and returns its title and the visible body
// text with whitespace collapsed. Script, style, noscript and template
// contents are not part of the text.
func Extract(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	body := doc.Find("body")
	body.Find("script, style, noscript, template").Remove()

	// Text() concatenates nodes directly, but rendered block elements are
	// separated by line breaks. Pad block boundaries with a space.
	var b strings.Builder
	body.Contents().Each(func(_ int, s *goquery.Selection) {
		collect(&b, s)
	})

	return Page{
		Title: title,
		Body:  strings.Join(strings.Fields(b.String()), " "),
	}, nil
}

// inline elements do not break the flow of text.
var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "dfn": true, "em": true, "font": true, "i": true,
	"kbd": true, "label": true, "mark": true, "q": true, "s": true, "samp": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"time": true, "u": true, "var": true,
}

func collect(b *strings.Builder, s *goquery.Selection) {
	switch name := goquery.NodeName(s); {
	case name == "#text":
		b.WriteString(s.Text())
	case name == "#comment":
	case inline[name]:
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			collect(b, c)
		})
	default:
		b.WriteByte(' ')
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			collect(b, c)
		})
		b.WriteByte(' ')
	}
}

// ExtractFile reads the page at path, "-" meaning standard input. A leading
// ~ is expanded to the home directory.
func ExtractFile(path string, stdin io.Reader) (Page, error) {
	if path == "-" {
		return Extract(stdin)
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to expand path %s: %w", path, err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return Page{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Extract(f)
}
