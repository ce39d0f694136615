package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when overlap is not strictly smaller than
// the target size. Stepping by target-overlap would otherwise stall.
var ErrInvalidConfig = errors.New("invalid chunk config")

// Config controls chunking behavior.
type Config struct {
	TargetWords  int // Maximum words per chunk.
	OverlapWords int // Words shared by consecutive chunks of one section.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetWords:  400,
		OverlapWords: 50,
	}
}

// Validate requires TargetWords > OverlapWords >= 0.
func (c Config) Validate() error {
	return validate(c.TargetWords, c.OverlapWords)
}

func validate(target, overlap int) error {
	if overlap < 0 || target <= overlap {
		return fmt.Errorf("%w: target_words=%d overlap_words=%d (need target > overlap >= 0)", ErrInvalidConfig, target, overlap)
	}
	return nil
}

// Split breaks text into windows of at most targetWords words, each
// starting targetWords-overlapWords words after the previous one.
//
// Text that already fits is returned unchanged. Longer text is re-joined
// with single spaces, so original whitespace inside a window is not kept.
// The final window is clipped to the end of the text, so it may be shorter
// than targetWords.
func Split(text string, targetWords, overlapWords int) ([]string, error) {
	if err := validate(targetWords, overlapWords); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) <= targetWords {
		return []string{text}, nil
	}

	step := targetWords - overlapWords
	var out []string
	for start := 0; ; start += step {
		end := min(start+targetWords, len(words))
		out = append(out, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}
	}
	return out, nil
}
