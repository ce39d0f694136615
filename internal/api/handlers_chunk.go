package api

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/section"
)

// metadataTitleRunes caps the title reported by /api/parse.
const metadataTitleRunes = 500

// handleChunk converts and chunks one document synchronously.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	cfg, err := s.chunkConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, ok := s.convert(w, filename, data)
	if !ok {
		return
	}

	res, err := chunker.ChunkDocument(doc, cfg)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, st := range res.SkippedTables {
		s.log.Warn("table skipped", "filename", filename, "table", st.Index, "error", st.Error)
	}
	s.orchestrator.Stats().Record(time.Since(start))

	skipped := res.SkippedTables
	if skipped == nil {
		skipped = []chunker.SkippedTable{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks":            res.Chunks,
		"total_chunks":      res.Summary.TotalChunks,
		"sections_detected": res.Summary.SectionsDetected,
		"skipped_tables":    skipped,
	})
}

type parsedSection struct {
	Text  string              `json:"text"`
	Type  doctree.SectionType `json:"type"`
	Label string              `json:"label"`
}

type parsedTable struct {
	Index   int                 `json:"index"`
	Data    []map[string]string `json:"data"`
	Columns []string            `json:"columns"`
	Rows    int                 `json:"rows"`
	Caption string              `json:"caption,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// handleParse returns the structured conversion of one document: Markdown,
// tables as records, classified elements and metadata.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	doc, ok := s.convert(w, filename, data)
	if !ok {
		return
	}

	sections := []parsedSection{}
	for _, el := range doc.Elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		sections = append(sections, parsedSection{
			Text:  text,
			Type:  section.Classify(el.Label, text),
			Label: el.Label,
		})
	}

	tables := make([]parsedTable, 0, len(doc.Tables))
	for i, t := range doc.Tables {
		pt := parsedTable{Index: i, Caption: t.Caption, Data: []map[string]string{}, Columns: []string{}}
		recs, err := t.Records()
		if err != nil {
			pt.Error = err.Error()
		} else {
			pt.Data = recs
			pt.Columns = t.ColumnNames()
			pt.Rows = len(t.Rows)
		}
		tables = append(tables, pt)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"markdown": doc.Markdown(),
		"tables":   tables,
		"sections": sections,
		"metadata": map[string]any{
			"page_count": doc.PageCount,
			"title":      metadataTitle(doc),
		},
	})
}

// convert runs the parser for filename. On failure it writes a 422 and
// returns ok=false.
func (s *Server) convert(w http.ResponseWriter, filename string, data []byte) (*doctree.Document, bool) {
	p, err := parser.ForFile(filename, s.parserOpts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Error("parse failed", "filename", filename, "error", err)
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	return doc, true
}

// metadataTitle is the first element's text when that element is a title.
func metadataTitle(doc *doctree.Document) any {
	if len(doc.Elements) == 0 || !doc.Elements[0].IsTitle() {
		return nil
	}
	title := strings.TrimSpace(doc.Elements[0].Text)
	if r := []rune(title); len(r) > metadataTitleRunes {
		title = string(r[:metadataTitleRunes])
	}
	return title
}
