package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// csvBatchSize is the number of data rows per emitted table.
const csvBatchSize = 20

// CSVParser handles CSV files. The file has no body text; its rows are
// emitted as tables of csvBatchSize rows under the shared header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	// Ragged rows are kept; the serializer rejects rows wider than the header.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &doctree.Document{Title: baseTitle(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		doc.Tables = append(doc.Tables, doctree.Table{
			Caption: fmt.Sprintf("%s rows %d-%d", doc.Title, i+2, end+1), // 1-indexed, skip header
			Columns: headers,
			Rows:    dataRows[i:end],
		})
	}

	return doc, nil
}
