package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type fakeExecutor struct {
	name  string
	args  []string
	write []byte
	err   error
}

func (e *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	e.name = name
	e.args = args
	if e.err != nil {
		return "", e.err
	}
	out := args[len(args)-1]
	return "", os.WriteFile(out, e.write, 0644)
}

func TestEdgeSynthesizer(t *testing.T) {
	out := filepath.Join(t.TempDir(), "seg", "temp_clip_0.mp3")
	exec := &fakeExecutor{write: []byte("ID3")}
	s := NewEdgeSynthesizer(Options{}, exec)

	if err := s.Synthesize(context.Background(), "你好，世界", "", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if exec.name != "edge-tts" {
		t.Errorf("binary = %q", exec.name)
	}

	want := []string{"--voice", "zh-CN-YunxiNeural", "--text=你好，世界", "--write-media", out}
	if strings.Join(exec.args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", exec.args, want)
	}
}

func TestEdgeSynthesizerLeadingDash(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.mp3")
	exec := &fakeExecutor{write: []byte("ID3")}

	if err := NewEdgeSynthesizer(Options{}, exec).Synthesize(context.Background(), "-Yes, really", "v", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !slices.Contains(exec.args, "--text=-Yes, really") {
		t.Errorf("args = %q, text must be attached to --text", exec.args)
	}
	if slices.Contains(exec.args, "-Yes, really") {
		t.Errorf("args = %q, text passed as a separate argument", exec.args)
	}
}

func TestEdgeSynthesizerErrors(t *testing.T) {
	dir := t.TempDir()

	s := NewEdgeSynthesizer(Options{}, &fakeExecutor{err: errors.New("network down")})
	if err := s.Synthesize(context.Background(), "x", "v", filepath.Join(dir, "a.mp3")); err == nil {
		t.Error("expected command failure")
	}

	s = NewEdgeSynthesizer(Options{}, &fakeExecutor{write: nil})
	if err := s.Synthesize(context.Background(), "x", "v", filepath.Join(dir, "b.mp3")); err == nil {
		t.Error("expected error for empty output")
	}
}

func TestOpenAISynthesizer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"voice":"alloy"`) {
			t.Errorf("request body %s lacks default voice", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake"))
	}))
	defer server.Close()

	s, err := NewOpenAISynthesizer("fake-key", Options{BaseURL: server.URL + "/v1/"})
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "a.mp3")
	if err := s.Synthesize(context.Background(), "hello", "", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "ID3fake" {
		t.Errorf("file contents = %q", data)
	}
}

func TestFactory(t *testing.T) {
	if s, err := Factory(ProviderEdge, "", Options{}); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*EdgeSynthesizer); !ok {
		t.Errorf("expected *EdgeSynthesizer, got %T", s)
	}
	if _, err := Factory(ProviderOpenAI, "", Options{}); err == nil {
		t.Error("openai without key: expected error")
	}
	if _, err := Factory(Provider("bogus"), "", Options{}); err == nil {
		t.Error("unknown provider: expected error")
	}
}
