package doctree

import "strings"

// Element labels emitted by the converters.
const (
	LabelTitle         = "title"
	LabelSectionHeader = "section_header"
	LabelParagraph     = "paragraph"
	LabelText          = "text"
	LabelListItem      = "list_item"
	LabelCaption       = "caption"
	LabelCode          = "code"
)

// SectionType is the academic section a chunk belongs to.
type SectionType string

const (
	SectionAbstract     SectionType = "abstract"
	SectionIntroduction SectionType = "introduction"
	SectionMethods      SectionType = "methods"
	SectionResults      SectionType = "results"
	SectionDiscussion   SectionType = "discussion"
	SectionConclusion   SectionType = "conclusion"
	SectionOther        SectionType = "other"
)

// Document is the converted form of an uploaded file.
type Document struct {
	Title     string    // Document title (from metadata or filename)
	PageCount int       // 0 if N/A
	Elements  []Element // Body items in reading order
	Tables    []Table   // Tables in document order
}

// Element is one structural unit of the document body.
type Element struct {
	Label string // Structural role, e.g. "title", "section_header", "paragraph"
	Text  string
}

// IsTitle reports whether the element is a document title.
func (e Element) IsTitle() bool {
	return strings.EqualFold(e.Label, LabelTitle)
}

// IsBoundary reports whether the element starts a new section.
func (e Element) IsBoundary() bool {
	return e.IsTitle() || strings.EqualFold(e.Label, LabelSectionHeader)
}

// Chunk is a sized, section-tagged text segment ready for embedding.
type Chunk struct {
	Index       int         `json:"chunk_index"`
	Text        string      `json:"text"`
	SectionType SectionType `json:"section_type"`
	WordCount   int         `json:"word_count"`
}

// Summary describes a chunk list as a whole.
type Summary struct {
	TotalChunks      int           `json:"total_chunks"`
	SectionsDetected []SectionType `json:"sections_detected"`
}
