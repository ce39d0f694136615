package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark with GFM tables.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	doc := &doctree.Document{Title: baseTitle(filename)}
	add := func(label, t string) {
		if t = strings.TrimSpace(t); t != "" {
			doc.Elements = append(doc.Elements, doctree.Element{Label: label, Text: t})
		}
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			// A leading h1 is the document title; every other heading opens a section.
			label := doctree.LabelSectionHeader
			if node.Level == 1 && len(doc.Elements) == 0 {
				label = doctree.LabelTitle
			}
			add(label, nodeText(node, src))

		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				add(doctree.LabelListItem, nodeText(item, src))
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			add(doctree.LabelCode, nodeText(node, src))

		case *east.Table:
			doc.Tables = append(doc.Tables, markdownTable(node, src, takeCaption(doc)))

		case *ast.ThematicBreak, *ast.HTMLBlock:
			// No text content.

		default:
			t := nodeText(n, src)
			label := doctree.LabelParagraph
			if isCaptionLine(t) {
				label = doctree.LabelCaption
			}
			add(label, t)
		}
	}

	return doc, nil
}

// takeCaption returns the text of a caption immediately preceding a table.
func takeCaption(doc *doctree.Document) string {
	if n := len(doc.Elements); n > 0 && doc.Elements[n-1].Label == doctree.LabelCaption {
		return doc.Elements[n-1].Text
	}
	return ""
}

func markdownTable(node *east.Table, src []byte, caption string) doctree.Table {
	t := doctree.Table{Caption: caption}
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, nodeText(cell, src))
		}
		if _, ok := row.(*east.TableHeader); ok {
			t.Columns = cells
		} else {
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}

// nodeText returns the plain text of a goldmark node. Inline content is
// taken from the node's children; leaf blocks such as code blocks use their
// raw lines.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
			return
		case *ast.String:
			buf.Write(t.Value)
			return
		case *ast.AutoLink:
			buf.Write(t.Label(src))
			return
		}

		if !n.HasChildren() {
			if n.Type() == ast.TypeBlock {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					line := lines.At(i)
					buf.Write(line.Value(src))
				}
			}
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
