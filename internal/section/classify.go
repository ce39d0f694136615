// Package section maps document elements to academic section categories.
package section

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// scanRunes is how much of an element's leading text is searched for keywords.
const scanRunes = 200

// keyword maps a substring to the section it signals.
type keyword struct {
	Text    string
	Section doctree.SectionType
}

// keywords is scanned in order and the first hit wins. Several entries are
// substrings of common words ("result", "method"), so the order is part of
// the classifier's behavior and must not become a map.
var keywords = []keyword{
	{"abstract", doctree.SectionAbstract},
	{"introduction", doctree.SectionIntroduction},
	{"background", doctree.SectionIntroduction},
	{"method", doctree.SectionMethods},
	{"materials and methods", doctree.SectionMethods},
	{"experimental", doctree.SectionMethods},
	{"procedure", doctree.SectionMethods},
	{"result", doctree.SectionResults},
	{"finding", doctree.SectionResults},
	{"discussion", doctree.SectionDiscussion},
	{"conclusion", doctree.SectionConclusion},
	{"summary", doctree.SectionConclusion},
	{"reference", doctree.SectionOther},
	{"bibliography", doctree.SectionOther},
	{"acknowledgment", doctree.SectionOther},
	{"appendix", doctree.SectionOther},
	{"supplementary", doctree.SectionOther},
}

// Classify returns the section an element signals. Titles are never
// section content and always classify as other.
func Classify(label, text string) doctree.SectionType {
	if lower(label) == doctree.LabelTitle {
		return doctree.SectionOther
	}

	head := lower(text)
	if r := []rune(head); len(r) > scanRunes {
		head = string(r[:scanRunes])
	}

	for _, kw := range keywords {
		if strings.Contains(head, kw.Text) {
			return kw.Section
		}
	}
	return doctree.SectionOther
}

// A cases.Caser is stateful, so each call gets its own.
func lower(s string) string {
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}
