package video

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type fakeRunner struct {
	probeOut string
	args     []string
}

func (r *fakeRunner) Run(ctx context.Context, stream *ffmpeg.Stream) error {
	r.args = stream.GetArgs()
	return nil
}

func (r *fakeRunner) Probe(ctx context.Context, args ...string) (string, error) {
	return r.probeOut, nil
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetInfo(t *testing.T) {
	path := writeVideo(t)
	runner := &fakeRunner{probeOut: `{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac"}
		],
		"format": {"duration": "61.250000"}
	}`}

	info, err := NewProcessor(runner).GetInfo(context.Background(), path)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}

	if info.Codec != "h264" || info.Width != 1920 || info.Height != 1080 {
		t.Errorf("unexpected stream info: %+v", info)
	}
	if !info.HasAudio {
		t.Error("expected HasAudio")
	}
	if info.Duration != 61250*time.Millisecond {
		t.Errorf("duration = %v", info.Duration)
	}
	if math.Abs(info.FrameRate-29.97) > 0.01 {
		t.Errorf("frame rate = %v", info.FrameRate)
	}
}

func TestGetInfoWithoutVideoStream(t *testing.T) {
	path := writeVideo(t)
	runner := &fakeRunner{probeOut: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"1"}}`}

	if _, err := NewProcessor(runner).GetInfo(context.Background(), path); err == nil {
		t.Fatal("expected error for audio-only file")
	}
}

func TestExtractAudioArgs(t *testing.T) {
	path := writeVideo(t)
	out := filepath.Join(t.TempDir(), "work", "clip.mp3")
	runner := &fakeRunner{}

	if err := NewProcessor(runner).ExtractAudio(context.Background(), path, out, DefaultExtractAudioOptions()); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}

	joined := strings.Join(runner.args, " ")
	for _, want := range []string{"-i " + path, "-vn", "-acodec libmp3lame", "-ar 16000", "-ac 1", out, "-y"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestExtractAudioLosslessIgnoresBitrate(t *testing.T) {
	path := writeVideo(t)
	runner := &fakeRunner{}
	opts := ExtractAudioOptions{Format: "flac", Bitrate: "320k"}

	if err := NewProcessor(runner).ExtractAudio(context.Background(), path, filepath.Join(t.TempDir(), "a.flac"), opts); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}

	joined := strings.Join(runner.args, " ")
	if !strings.Contains(joined, "-acodec flac") {
		t.Errorf("args %q missing flac encoder", joined)
	}
	for _, unwanted := range []string{"320k", "-b:a", "-ar", "-ac"} {
		if slices.Contains(runner.args, unwanted) {
			t.Errorf("args %q should not contain %q", joined, unwanted)
		}
	}
}

func TestSupportedAudioFormat(t *testing.T) {
	for _, f := range []string{"wav", "mp3", "aac", "flac"} {
		if !SupportedAudioFormat(f) {
			t.Errorf("%s should be supported", f)
		}
	}
	if SupportedAudioFormat("ogg") {
		t.Error("ogg should not be supported")
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := map[string]float64{
		"25/1": 25,
		"24":   24,
		"0/0":  0,
		"":     0,
		"x/1":  0,
	}
	for in, want := range tests {
		if got := parseFrameRate(in); got != want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}
