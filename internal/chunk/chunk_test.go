package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func block(i int) string {
	return strings.Repeat("字", 10) + string(rune('a'+i%26))
}

func TestSplitRespectsLimit(t *testing.T) {
	var blocks []string
	for i := 0; i < 50; i++ {
		blocks = append(blocks, block(i))
	}
	text := strings.Join(blocks, "\n\n")

	chunks := Split(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}

	if got := strings.Join(chunks, "\n\n"); got != text {
		t.Error("rejoined chunks differ from input")
	}
}

func TestSplitOversizedBlock(t *testing.T) {
	big := strings.Repeat("x", 40)
	text := "small\n\n" + big + "\n\ntail"

	chunks := Split(text, 10)
	want := []string{"small", big, "tail"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %q, want %q", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want int
	}{
		{"empty", "", 100, 0},
		{"whitespace", "\n\n  \n\n", 100, 0},
		{"leading blank lines", "\n\n\n\na\n\nb", 100, 1},
		{"no limit", "a\n\nb", 0, 1},
		{"crlf", "a\r\n\r\nb", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.max)
			if len(got) != tt.want {
				t.Errorf("Split(%q, %d) = %q, want %d chunks", tt.text, tt.max, got, tt.want)
			}
		})
	}
}
