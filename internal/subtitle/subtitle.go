package subtitle

import (
	"strings"
	"time"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents transcribed audio segment
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// converts transcription segments into numbered entries, dropping empty text
func FromSegments(segments []Segment) []Entry {
	entries := make([]Entry, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		end := seg.EndTime
		if end < seg.StartTime {
			end = seg.StartTime
		}
		entries = append(entries, Entry{
			Index:     len(entries) + 1,
			StartTime: seg.StartTime,
			EndTime:   end,
			Text:      text,
		})
	}
	return entries
}

// PlainText drops indices and timings and joins the remaining text lines
// with the CJK comma used between dub phrases.
func PlainText(entries []Entry) string {
	var lines []string
	for _, entry := range entries {
		for _, line := range strings.Split(entry.Text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, Delimiter)
}

// Overlay stacks each translated entry over the original entry with the
// same index. Translated entries without a counterpart are kept unchanged.
func Overlay(original, translated []Entry) []Entry {
	byIndex := make(map[int]string, len(original))
	for _, entry := range original {
		byIndex[entry.Index] = entry.Text
	}

	out := make([]Entry, len(translated))
	for i, entry := range translated {
		if text, ok := byIndex[entry.Index]; ok && text != "" {
			entry.Text = entry.Text + "\n" + text
		}
		out[i] = entry
	}
	return out
}

// Delimiter separates subtitle phrases when they are merged into one string.
const Delimiter = "，"
