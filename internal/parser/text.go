package parser

import (
	"bufio"
	"io"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &doctree.Document{
		Title:    baseTitle(filename),
		Elements: linesToElements(lines, false),
	}, nil
}
