// Package chunk splits SRT text into pieces small enough for one model request.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars bounds one translation request.
const DefaultMaxChars = 3000

const separator = "\n\n"

// Split breaks text on blank-line block boundaries and packs consecutive
// blocks into chunks of at most maxChars runes, separators included. A block
// longer than maxChars is never cut and becomes a chunk of its own. Empty
// chunks are never returned. A non-positive maxChars disables the limit.
func Split(text string, maxChars int) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		size = 0
	}

	for _, block := range strings.Split(text, separator) {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}

		blockSize := utf8.RuneCountInString(block)
		if maxChars > 0 && current.Len() > 0 && size+len(separator)+blockSize > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(separator)
			size += len(separator)
		}
		current.WriteString(block)
		size += blockSize
	}
	flush()

	return chunks
}
