package audit

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Document is the parsed page shared read-only by every analyzer
type Document struct {
	doc *goquery.Document

	serializeOnce sync.Once
	serialized    string

	textOnce sync.Once
	text     string
}

// ParseDocument decodes body using the declared content type and parses it as HTML
func ParseDocument(body []byte, contentType string) (*Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, ParseError("decode charset", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, ParseError("parse html", err)
	}

	return &Document{doc: doc}, nil
}

// Find returns the selection matching selector
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Title returns the trimmed text of the first title element
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// MetaByName returns the content of the first meta element with the given name
func (d *Document) MetaByName(name string) (string, bool) {
	return d.metaContent("name", name)
}

// MetaByProperty returns the content of the first meta element with the given property
func (d *Document) MetaByProperty(property string) (string, bool) {
	return d.metaContent("property", property)
}

func (d *Document) metaContent(attr, value string) (string, bool) {
	var (
		content string
		found   bool
	)
	d.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attr)
		if !ok || !strings.EqualFold(v, value) {
			return true
		}
		content, found = s.Attr("content")
		if !found {
			found = true
		}
		return false
	})
	return content, found
}

// Serialized returns the document rendered back to HTML
func (d *Document) Serialized() string {
	d.serializeOnce.Do(func() {
		s, err := d.doc.Html()
		if err == nil {
			d.serialized = s
		}
	})
	return d.serialized
}

// VisibleText returns the text of the document without script and style content.
// The underlying tree is left untouched.
func (d *Document) VisibleText() string {
	d.textOnce.Do(func() {
		var b strings.Builder
		for _, n := range d.doc.Nodes {
			collectText(n, &b)
		}
		d.text = b.String()
	})
	return d.text
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// truncate cuts s to at most n characters
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// charCount counts characters, not bytes
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
