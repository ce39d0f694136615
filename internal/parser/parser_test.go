package parser

import "testing"

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"paper.pdf", false},
		{"Paper.PDF", false},
		{"notes.md", false},
		{"notes.markdown", false},
		{"report.docx", false},
		{"page.htm", false},
		{"data.csv", false},
		{"plain.txt", false},
		{"image.png", true},
		{"noext", true},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.filename)
			}
			continue
		}
		if err != nil || p == nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: expected supported extension", tt.filename)
		}
	}
}

func TestForFile_PDFOptions(t *testing.T) {
	p, err := ForFile("a.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pdf, ok := p.(*PDFParser)
	if !ok {
		t.Fatalf("expected *PDFParser, got %T", p)
	}
	if !pdf.FallbackPdftotext {
		t.Error("expected pdftotext fallback to be enabled")
	}
}

func TestSplitPages(t *testing.T) {
	pages := splitPages("one\ftwo\f")
	if len(pages) != 2 || pages[0] != "one" || pages[1] != "two" {
		t.Errorf("expected [one two], got %q", pages)
	}
}
