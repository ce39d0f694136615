package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Plain-text sources (PDF, .txt) carry no structural markup, so headings are
// recognized from the shape of a line.

const (
	maxHeadingWords = 10
	maxTitleWords   = 25
)

var numberedHeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\p{Lu}`), // 1 Introduction, 2.1. Data
	regexp.MustCompile(`^[IVXLC]+\.\s+\p{Lu}`),      // IV. RESULTS
	regexp.MustCompile(`^[A-H]\.\s+\p{Lu}`),         // A. Appendix
}

var captionPattern = regexp.MustCompile(`^(?i)(table|figure|fig\.)\s*[0-9IVX]+[.:]?(\s|$)`)

// sectionNames are headings academic papers commonly use without numbering.
var sectionNames = map[string]bool{
	"abstract":                   true,
	"introduction":               true,
	"background":                 true,
	"related work":               true,
	"methods":                    true,
	"method":                     true,
	"methodology":                true,
	"materials and methods":      true,
	"experiments":                true,
	"experimental setup":         true,
	"results":                    true,
	"results and discussion":     true,
	"discussion":                 true,
	"conclusion":                 true,
	"conclusions":                true,
	"summary":                    true,
	"references":                 true,
	"bibliography":               true,
	"acknowledgments":            true,
	"acknowledgements":           true,
	"appendix":                   true,
	"supplementary material":     true,
	"supplementary materials":    true,
	"limitations":                true,
	"future work":                true,
	"conclusion and future work": true,
}

// isHeadingLine reports whether a single trimmed line looks like a section
// heading.
func isHeadingLine(line string) bool {
	n := len(strings.Fields(line))
	if n == 0 || n > maxHeadingWords {
		return false
	}
	name := strings.ToLower(strings.TrimRight(line, ":. "))
	if sectionNames[name] {
		return true
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") {
		return false
	}
	for _, re := range numberedHeadingPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return isAllCaps(line) && n <= 6
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 4
}

func isCaptionLine(line string) bool {
	return captionPattern.MatchString(line)
}

// linesToElements groups raw lines into labelled elements. Blank lines end
// a paragraph; heading and caption lines stand alone. With detectTitle set,
// a short first line that is not a heading becomes the title.
func linesToElements(lines []string, detectTitle bool) []doctree.Element {
	var els []doctree.Element
	var para []string
	seenText := false

	flush := func() {
		if len(para) > 0 {
			els = append(els, doctree.Element{Label: doctree.LabelParagraph, Text: strings.Join(para, "\n")})
			para = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}
		first := !seenText
		seenText = true

		switch {
		case isHeadingLine(line):
			flush()
			els = append(els, doctree.Element{Label: doctree.LabelSectionHeader, Text: line})
		case isCaptionLine(line):
			flush()
			els = append(els, doctree.Element{Label: doctree.LabelCaption, Text: line})
		case first && detectTitle && len(strings.Fields(line)) <= maxTitleWords:
			els = append(els, doctree.Element{Label: doctree.LabelTitle, Text: line})
		default:
			para = append(para, line)
		}
	}
	flush()
	return els
}
