package dub

import (
	"strings"

	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

// DefaultBatchSize is the number of subtitle entries spoken per request.
const DefaultBatchSize = 20

// Batch is the joined text of consecutive entries sent to one synthesis call.
type Batch struct {
	Index int
	Text  string
}

// Batches partitions entries into ceil(len/size) consecutive groups. Entry
// text has its newlines flattened to spaces and entries are joined with
// subtitle.Delimiter. Text is trimmed; callers skip blank batches.
func Batches(entries []subtitle.Entry, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([]Batch, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))

		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, flatten(e.Text))
		}

		batches = append(batches, Batch{
			Index: len(batches),
			Text:  strings.TrimSpace(strings.Join(texts, subtitle.Delimiter)),
		})
	}
	return batches
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// isBlank reports whether a batch carries nothing speakable once the
// delimiters are removed.
func isBlank(text string) bool {
	return strings.TrimSpace(strings.ReplaceAll(text, subtitle.Delimiter, "")) == ""
}
