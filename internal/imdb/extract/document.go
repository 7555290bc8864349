package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page shared by every tier.
type Document struct {
	root *html.Node
	sel  *goquery.Document
}

// NewDocument parses raw HTML. The HTML5 parser is lenient, so only reader
// failures surface as errors.
func NewDocument(raw []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Document{root: root, sel: goquery.NewDocumentFromNode(root)}, nil
}

// Find runs a CSS selector over the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.sel.Find(selector)
}

// Wrap exposes a raw node as a selection for nested queries.
func (d *Document) Wrap(nodes ...*html.Node) *goquery.Selection {
	return d.sel.FindNodes(nodes...)
}

// scriptJSON returns the parsed body of the first script matching selector.
func (d *Document) scriptJSON(selector string) *Value {
	body := strings.TrimSpace(d.Find(selector).First().Text())
	if body == "" {
		return nil
	}
	v, err := Parse([]byte(body))
	if err != nil {
		return nil
	}
	return v
}

// eachText visits text nodes below n in document order until visit returns false.
func eachText(n *html.Node, visit func(*html.Node) bool) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			if !visit(child) {
				return false
			}
			continue
		}
		if child.Type == html.ElementNode && (child.Data == "script" || child.Data == "style") {
			continue
		}
		if !eachText(child, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
