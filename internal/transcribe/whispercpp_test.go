package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writes a canned SRT to the -of prefix like whisper-cli does
type srtWritingExecutor struct {
	srt  string
	err  error
	args []string
}

func (e *srtWritingExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	e.args = args
	if e.err != nil {
		return "", e.err
	}
	for i, a := range args {
		if a == "-of" && i+1 < len(args) {
			return "", os.WriteFile(args[i+1]+".srt", []byte(e.srt), 0644)
		}
	}
	return "", errors.New("no output prefix")
}

func TestWhisperCppTranscribe(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(audioPath, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	exec := &srtWritingExecutor{srt: "1\n00:00:00,000 --> 00:00:02,000\n Hello \n\n2\n00:00:02,000 --> 00:00:04,500\nWorld\n"}
	tr, err := NewWhisperCppTranscriber(Options{ModelPath: "ggml-base.bin", Language: "en"}, exec)
	if err != nil {
		t.Fatal(err)
	}

	result, err := tr.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Segments) != 2 || result.Segments[0].Text != "Hello" {
		t.Fatalf("segments = %+v", result.Segments)
	}
	if result.Duration != 4500*time.Millisecond {
		t.Errorf("duration = %v", result.Duration)
	}

	joined := strings.Join(exec.args, " ")
	for _, want := range []string{"-m ggml-base.bin", "-f " + audioPath, "-l en", "-osrt"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(audioPath), "whisper-*"))
	if len(leftovers) != 0 {
		t.Errorf("scratch dirs left behind: %v", leftovers)
	}
}

func TestWhisperCppFailure(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(audioPath, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	tr, _ := NewWhisperCppTranscriber(Options{ModelPath: "m.bin"}, &srtWritingExecutor{err: errors.New("model not found")})
	if _, err := tr.Transcribe(context.Background(), audioPath); err == nil {
		t.Fatal("expected error")
	}
}

func TestWhisperCppArgsDefaults(t *testing.T) {
	tr, _ := NewWhisperCppTranscriber(Options{ModelPath: "m.bin", TranscriptLanguage: "English"}, &srtWritingExecutor{})
	args := strings.Join(tr.args("a.mp3", "out"), " ")
	if !strings.Contains(args, "-l auto") || !strings.Contains(args, "-tr") {
		t.Errorf("args = %q", args)
	}
	if tr.binary != defaultWhisperBinary {
		t.Errorf("binary = %q", tr.binary)
	}
}
