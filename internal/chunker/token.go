package chunker

import "strings"

// WordCount is the number of whitespace-separated words in text.
// Chunk sizes and overlaps are measured in these words, not model tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
