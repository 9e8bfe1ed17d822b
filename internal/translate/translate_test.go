package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hua1232/AI-video-translate-lear/internal/llm"
)

// fakeCompleter upper-cases its input and fails for inputs containing a
// marker, with an optional delay to shuffle completion order
type fakeCompleter struct {
	mu       sync.Mutex
	requests []llm.Request
	failOn   string
	delay    func(string) time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay != nil {
		time.Sleep(f.delay(req.User))
	}
	if f.failOn != "" && strings.Contains(req.User, f.failOn) {
		return "", errors.New("status 500")
	}
	return strings.ToUpper(req.User), nil
}

func srtBlocks(n int) string {
	var blocks []string
	for i := 1; i <= n; i++ {
		blocks = append(blocks, fmt.Sprintf("%d\n00:00:%02d,000 --> 00:00:%02d,500\nline %d", i, i, i, i))
	}
	return strings.Join(blocks, "\n\n")
}

func TestNewRequiresTargetLanguage(t *testing.T) {
	if _, err := New(&fakeCompleter{}, Options{}, nil); err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Options{SourceLanguage: "English", TargetLanguage: "Chinese", Prompt: "Use formal tone."})

	for _, want := range []string{"subtitle translation engine", "into Chinese", "SRT format", "timeline", "Use formal tone."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}
}

func TestTranslateSingleChunk(t *testing.T) {
	completer := &fakeCompleter{}
	tr, _ := New(completer, Options{TargetLanguage: "Chinese"}, nil)

	out, err := tr.Translate(context.Background(), srtBlocks(3))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(completer.requests))
	}

	req := completer.requests[0]
	if req.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", req.Temperature)
	}
	if !strings.Contains(req.System, "Chinese") {
		t.Errorf("system prompt lacks target language: %q", req.System)
	}
	if !strings.Contains(out, "LINE 3") || !strings.HasSuffix(out, "\n\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestTranslateKeepsOrderUnderConcurrency(t *testing.T) {
	completer := &fakeCompleter{delay: func(s string) time.Duration {
		// earlier chunks finish last
		if strings.Contains(s, "line 1\n") || strings.HasSuffix(s, "line 1") {
			return 40 * time.Millisecond
		}
		return 0
	}}
	tr, _ := New(completer, Options{TargetLanguage: "Chinese", MaxChars: 60, Concurrency: 4}, nil)

	out, err := tr.Translate(context.Background(), srtBlocks(6))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(completer.requests) < 2 {
		t.Fatalf("expected several chunks, got %d", len(completer.requests))
	}

	last := -1
	for i := 1; i <= 6; i++ {
		pos := strings.Index(out, fmt.Sprintf("LINE %d", i))
		if pos < 0 {
			t.Fatalf("output missing LINE %d: %q", i, out)
		}
		if pos < last {
			t.Fatalf("LINE %d out of order in %q", i, out)
		}
		last = pos
	}
}

func TestTranslateDropsFailedChunk(t *testing.T) {
	completer := &fakeCompleter{failOn: "line 2"}
	tr, _ := New(completer, Options{TargetLanguage: "Chinese", MaxChars: 40}, nil)

	out, err := tr.Translate(context.Background(), srtBlocks(3))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if strings.Contains(out, "LINE 2") {
		t.Errorf("failed chunk leaked into output: %q", out)
	}
	if !strings.Contains(out, "LINE 1") || !strings.Contains(out, "LINE 3") {
		t.Errorf("surviving chunks missing: %q", out)
	}
}

func TestTranslateAllChunksFail(t *testing.T) {
	tr, _ := New(&fakeCompleter{failOn: "line"}, Options{TargetLanguage: "Chinese", MaxChars: 40}, nil)

	_, err := tr.Translate(context.Background(), srtBlocks(3))
	if !errors.Is(err, ErrTranslationEmpty) {
		t.Fatalf("err = %v, want ErrTranslationEmpty", err)
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	tr, _ := New(&fakeCompleter{}, Options{TargetLanguage: "Chinese"}, nil)

	if _, err := tr.Translate(context.Background(), "  \n\n "); !errors.Is(err, ErrTranslationEmpty) {
		t.Fatalf("err = %v, want ErrTranslationEmpty", err)
	}
}
