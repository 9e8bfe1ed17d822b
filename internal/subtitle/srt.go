package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const utf8BOM = "\ufeff"

var (
	timestampRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)
	timingRegex    = regexp.MustCompile(
		`(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})`,
	)
)

// FormatTimestamp renders d as HH:MM:SS,mmm. Negative values render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(value string) (time.Duration, error) {
	matches := timestampRegex.FindStringSubmatch(strings.TrimSpace(value))
	if matches == nil {
		return 0, fmt.Errorf("invalid SRT timestamp %q", value)
	}

	h, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, err
	}
	m, _ := strconv.Atoi(matches[2])
	s, _ := strconv.Atoi(matches[3])
	ms, _ := strconv.Atoi(matches[4])
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("invalid SRT timestamp %q", value)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// Parse reads SRT blocks from r. A leading BOM is ignored and a missing index
// line is tolerated. Blocks with bad timing or no text are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		current   *Entry
		timed     bool
		textLines []string
		lineNum   int
		skipping  bool
	)

	flush := func() {
		if current != nil && timed && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			entries = append(entries, *current)
		}
		current = nil
		timed = false
		textLines = nil
		skipping = false
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if skipping {
			continue
		}

		if current == nil {
			if index, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				current = &Entry{Index: index}
				continue
			}
		}

		if !timed {
			matches := timingRegex.FindStringSubmatch(line)
			if matches != nil {
				start, startErr := ParseTimestamp(matches[1])
				end, endErr := ParseTimestamp(matches[2])
				if startErr != nil || endErr != nil {
					// out-of-range timing drops the whole block
					current = nil
					skipping = true
					continue
				}
				if current == nil {
					current = &Entry{Index: len(entries) + 1}
				}
				current.StartTime = start
				current.EndTime = max(end, start)
				timed = true
				continue
			}
		}

		if timed {
			textLines = append(textLines, strings.TrimSpace(line))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT: %w", err)
	}
	return entries, nil
}

func ParseString(text string) ([]Entry, error) {
	return Parse(strings.NewReader(text))
}

func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Format renders entries as SRT text. Entries without an index are numbered
// by position.
func Format(entries []Entry) string {
	var sb strings.Builder
	for i, entry := range entries {
		index := entry.Index
		if index <= 0 {
			index = i + 1
		}
		fmt.Fprintf(&sb, "%d\n", index)
		fmt.Fprintf(&sb, "%s --> %s\n",
			FormatTimestamp(entry.StartTime),
			FormatTimestamp(entry.EndTime))
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// WriteFile writes text as UTF-8 with a leading BOM.
func WriteFile(path, text string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if !strings.HasPrefix(text, utf8BOM) {
		text = utf8BOM + text
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
