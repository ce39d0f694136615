package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docchunk-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &doctree.Document{Title: baseTitle(filename)}

	for _, item := range d.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			doc.Elements = append(doc.Elements, doctree.Element{
				Label: docxLabel(it, text),
				Text:  text,
			})
		case *docx.Table:
			doc.Tables = append(doc.Tables, docxTable(it, takeCaption(doc)))
		}
	}

	return doc, nil
}

// docxLabel maps a paragraph style to an element label.
func docxLabel(para *docx.Paragraph, text string) string {
	style := ""
	if para.Properties != nil && para.Properties.Style != nil {
		style = strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	}
	switch {
	case style == "title":
		return doctree.LabelTitle
	case strings.HasPrefix(style, "heading"):
		return doctree.LabelSectionHeader
	case style == "caption" || isCaptionLine(text):
		return doctree.LabelCaption
	case strings.HasPrefix(style, "listparagraph") || strings.HasPrefix(style, "listbullet") || strings.HasPrefix(style, "listnumber"):
		return doctree.LabelListItem
	}
	return doctree.LabelParagraph
}

// docxTable reads a w:tbl; its first row is treated as the header.
func docxTable(tbl *docx.Table, caption string) doctree.Table {
	t := doctree.Table{Caption: caption}
	for i, row := range tbl.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if s := docxParagraphText(para); s != "" {
					parts = append(parts, s)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if i == 0 {
			t.Columns = cells
		} else {
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
