package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &doctree.Document{Title: baseTitle(filename)}

	// Extract title from <title> tag if present.
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	add := func(label, t string) {
		if t != "" {
			doc.Elements = append(doc.Elements, doctree.Element{Label: label, Text: t})
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				label := doctree.LabelSectionHeader
				if level == 1 && len(doc.Elements) == 0 {
					label = doctree.LabelTitle
				}
				add(label, textContent(n))
				return // Don't recurse into heading children (already extracted text).
			}

			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "table":
				doc.Tables = append(doc.Tables, htmlTable(n))
				return
			case "li":
				add(doctree.LabelListItem, textContent(n))
				return
			case "pre":
				add(doctree.LabelCode, textContent(n))
				return
			case "figcaption":
				add(doctree.LabelCaption, textContent(n))
				return
			case "p", "blockquote":
				t := textContent(n)
				label := doctree.LabelParagraph
				if isCaptionLine(t) {
					label = doctree.LabelCaption
				}
				add(label, t)
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}

	return doc, nil
}

// htmlTable reads a <table>: its <caption>, a header row made only of <th>
// cells, and data rows. Nested tables are flattened into their cell text.
func htmlTable(n *html.Node) doctree.Table {
	var t doctree.Table

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "caption":
				t.Caption = textContent(c)
			case "thead", "tbody", "tfoot":
				walk(c)
			case "tr":
				cells, allTH := htmlRow(c)
				if len(cells) == 0 {
					continue
				}
				if allTH && len(t.Columns) == 0 && len(t.Rows) == 0 {
					t.Columns = cells
					continue
				}
				t.Rows = append(t.Rows, cells)
			}
		}
	}
	walk(n)
	return t
}

func htmlRow(tr *html.Node) ([]string, bool) {
	var cells []string
	allTH := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if c.Data != "th" {
			allTH = false
		}
		cells = append(cells, textContent(c))
	}
	return cells, allTH
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
