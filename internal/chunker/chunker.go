package chunker

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/section"
)

// TableSection is the tag every table chunk carries.
const TableSection = doctree.SectionResults

// SkippedTable records a table that produced no chunk.
type SkippedTable struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Result is the output of chunking one document.
type Result struct {
	Chunks        []doctree.Chunk
	Summary       doctree.Summary
	SkippedTables []SkippedTable
}

// ChunkDocument chunks a converted document and summarizes the result.
func ChunkDocument(doc *doctree.Document, cfg Config) (Result, error) {
	acc, err := newAccumulator(cfg)
	if err != nil {
		return Result{}, err
	}
	for _, el := range doc.Elements {
		acc.add(el)
	}
	acc.flush()

	var skipped []SkippedTable
	for i, t := range doc.Tables {
		if err := acc.addTable(t); err != nil {
			skipped = append(skipped, SkippedTable{Index: i, Error: err.Error()})
		}
	}

	return Result{
		Chunks:        acc.chunks,
		Summary:       Summarize(acc.chunks),
		SkippedTables: skipped,
	}, nil
}

// Accumulate walks elements in order, cutting chunks at section headers and
// titles, then appends one chunk per renderable table. Tables that fail to
// serialize are skipped. The only error is an invalid cfg.
func Accumulate(elements []doctree.Element, tables []doctree.Table, cfg Config) ([]doctree.Chunk, error) {
	res, err := ChunkDocument(&doctree.Document{Elements: elements, Tables: tables}, cfg)
	if err != nil {
		return nil, err
	}
	return res.Chunks, nil
}

// Summarize counts chunks and lists the distinct sections in order of
// first appearance.
func Summarize(chunks []doctree.Chunk) doctree.Summary {
	seen := make(map[doctree.SectionType]bool)
	sections := []doctree.SectionType{}
	for _, c := range chunks {
		if !seen[c.SectionType] {
			seen[c.SectionType] = true
			sections = append(sections, c.SectionType)
		}
	}
	return doctree.Summary{
		TotalChunks:      len(chunks),
		SectionsDetected: sections,
	}
}

// accumulator holds the fold state for one document.
type accumulator struct {
	cfg     Config
	section doctree.SectionType
	text    strings.Builder
	chunks  []doctree.Chunk
}

func newAccumulator(cfg Config) (*accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &accumulator{
		cfg:     cfg,
		section: doctree.SectionOther,
		chunks:  []doctree.Chunk{},
	}, nil
}

func (a *accumulator) add(el doctree.Element) {
	text := strings.TrimSpace(el.Text)
	if text == "" {
		return
	}
	st := section.Classify(el.Label, text)

	if el.IsBoundary() && a.text.Len() > 0 {
		a.flush()
		a.section = st
	} else if st != doctree.SectionOther {
		// Most recent non-other classification re-tags the open section,
		// even from inside a paragraph.
		a.section = st
	}

	// Titles close the previous section but never become chunk text.
	if el.IsTitle() {
		return
	}
	if a.text.Len() > 0 {
		a.text.WriteByte(' ')
	}
	a.text.WriteString(text)
}

func (a *accumulator) flush() {
	if a.text.Len() == 0 {
		return
	}
	// Config was validated in newAccumulator.
	parts, _ := Split(a.text.String(), a.cfg.TargetWords, a.cfg.OverlapWords)
	for _, p := range parts {
		a.emit(p, a.section)
	}
	a.text.Reset()
}

func (a *accumulator) addTable(t doctree.Table) error {
	text, err := SerializeTable(t)
	if err != nil {
		return err
	}
	a.emit(text, TableSection)
	return nil
}

func (a *accumulator) emit(text string, st doctree.SectionType) {
	a.chunks = append(a.chunks, doctree.Chunk{
		Index:       len(a.chunks),
		Text:        text,
		SectionType: st,
		WordCount:   WordCount(text),
	})
}
