package doctree

import (
	"strings"
)

// Markdown renders the document as Markdown: elements in order, then tables.
// Tables that fail Check are left out.
func (d *Document) Markdown() string {
	var sb strings.Builder
	block := func(s string) {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s)
	}

	for _, el := range d.Elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		switch strings.ToLower(el.Label) {
		case LabelTitle:
			block("# " + text)
		case LabelSectionHeader:
			block("## " + text)
		case LabelListItem:
			block("- " + text)
		case LabelCode:
			block("```\n" + text + "\n```")
		case LabelCaption:
			block("*" + text + "*")
		default:
			block(text)
		}
	}

	for _, t := range d.Tables {
		if t.Check() != nil {
			continue
		}
		block(markdownTable(t))
	}
	return sb.String()
}

func markdownTable(t Table) string {
	var sb strings.Builder
	if c := strings.TrimSpace(t.Caption); c != "" {
		sb.WriteString("*" + c + "*\n\n")
	}
	header := t.ColumnNames()
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(c, "|", `\|`))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}
	writeRow(header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range t.Rows {
		writeRow(pad(row, len(header)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
