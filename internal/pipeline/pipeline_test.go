package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
	"github.com/hua1232/AI-video-translate-lear/internal/compose"
	"github.com/hua1232/AI-video-translate-lear/internal/dub"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
	"github.com/hua1232/AI-video-translate-lear/internal/translate"
)

type fakeTranscriber struct {
	segments []subtitle.Segment
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, mediaPath string) ([]subtitle.Segment, error) {
	return f.segments, f.err
}

// fakeTranslator prefixes every text line of the SRT it receives
type fakeTranslator struct {
	out string
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, srt string) (string, error) {
	if f.err != nil || f.out != "" {
		return f.out, f.err
	}
	entries, err := subtitle.ParseString(srt)
	if err != nil {
		return "", err
	}
	for i := range entries {
		entries[i].Text = "ZH " + entries[i].Text
	}
	return subtitle.Format(entries), nil
}

type fakeSummarizer struct {
	got string
	err error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.got = text
	return "summary of talk", f.err
}

type fakeDubber struct {
	dir     string
	entries []subtitle.Entry
	err     error
	track   string
}

func (f *fakeDubber) Assemble(ctx context.Context, name string, entries []subtitle.Entry) (string, error) {
	f.entries = entries
	if f.err != nil {
		return "", f.err
	}
	f.track = filepath.Join(f.dir, "final_dub_"+name+".mp3")
	return f.track, os.WriteFile(f.track, []byte("dub"), 0644)
}

type fakeComposer struct {
	plan  compose.Plan
	audio string
	err   error
}

func (f *fakeComposer) Compose(ctx context.Context, videoPath, audioPath, outPath string, plan compose.Plan) error {
	f.plan = plan
	f.audio = audioPath
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("video"), 0644)
}

// fakeProber answers by base name
type fakeProber struct {
	durations map[string]time.Duration
}

func (f *fakeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	d, ok := f.durations[filepath.Base(path)]
	if !ok {
		return 0, audio.ErrProbeFailed
	}
	return d, nil
}

type fixture struct {
	input, output, processed, work string
	source                         string
	transcriber                    *fakeTranscriber
	translator                     *fakeTranslator
	summarizer                     *fakeSummarizer
	dubber                         *fakeDubber
	composer                       *fakeComposer
	prober                         *fakeProber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		input:     filepath.Join(root, "in"),
		output:    filepath.Join(root, "out"),
		processed: filepath.Join(root, "done"),
		work:      filepath.Join(root, "work"),
		transcriber: &fakeTranscriber{segments: []subtitle.Segment{
			{StartTime: 0, EndTime: 2 * time.Second, Text: "Hello there"},
			{StartTime: 2 * time.Second, EndTime: 4 * time.Second, Text: "General Kenobi"},
		}},
		translator: &fakeTranslator{},
		summarizer: &fakeSummarizer{},
		composer:   &fakeComposer{},
		prober: &fakeProber{durations: map[string]time.Duration{
			"talk.mp4":           10 * time.Second,
			"final_dub_talk.mp3": 15 * time.Second,
		}},
	}
	for _, dir := range []string{f.input, f.work} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	f.dubber = &fakeDubber{dir: f.work}
	f.source = filepath.Join(f.input, "talk.mp4")
	if err := os.WriteFile(f.source, []byte("source video"), 0644); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) pipeline() *Pipeline {
	return New(Deps{
		Transcriber: f.transcriber,
		Translator:  f.translator,
		Summarizer:  f.summarizer,
		Dubber:      f.dubber,
		Composer:    f.composer,
		Prober:      f.prober,
	}, Options{
		InputDir:       f.input,
		OutputDir:      f.output,
		ProcessedDir:   f.processed,
		SourceLanguage: "en",
	}, nil)
}

func assertStatus(t *testing.T, report *Report, stage Stage, want Status) {
	t.Helper()
	res, ok := report.Stage(stage)
	if !ok {
		t.Fatalf("stage %s not recorded", stage)
	}
	if res.Status != want {
		t.Errorf("stage %s status = %s (%s), want %s", stage, res.Status, res.Detail, want)
	}
}

func assertExists(t *testing.T, path string, want bool) {
	t.Helper()
	_, err := os.Stat(path)
	if exists := err == nil; exists != want {
		t.Errorf("%s exists = %v, want %v", path, exists, want)
	}
}

func TestProcessHappyPath(t *testing.T) {
	f := newFixture(t)

	report, err := f.pipeline().Process(context.Background(), f.source)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	for _, stage := range stages {
		assertStatus(t, report, stage, StatusOK)
	}
	if report.RunID == "" {
		t.Error("run ID not set")
	}

	assertExists(t, filepath.Join(f.output, "talk_en.srt"), true)
	assertExists(t, filepath.Join(f.output, "talk.srt"), true)
	assertExists(t, filepath.Join(f.output, "talk_summary.txt"), true)
	assertExists(t, filepath.Join(f.output, "talk_dubbed.mp4"), true)
	assertExists(t, f.dubber.track, false)
	assertExists(t, f.source, false)
	assertExists(t, filepath.Join(f.processed, "talk.mp4"), true)

	translated, err := subtitle.ParseFile(filepath.Join(f.output, "talk.srt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(translated) != 2 || translated[1].Text != "ZH General Kenobi" {
		t.Errorf("translated subtitles = %+v", translated)
	}
	if f.summarizer.got != "ZH Hello there，ZH General Kenobi" {
		t.Errorf("summary input = %q", f.summarizer.got)
	}
	if len(f.dubber.entries) != 2 {
		t.Errorf("dubber got %d entries, want translated entries", len(f.dubber.entries))
	}
	if f.composer.plan.Mode != compose.SpeedUpAudio || f.composer.plan.Factor != 1.5 {
		t.Errorf("plan = %+v, want speed-up 1.5", f.composer.plan)
	}
	if got := len(report.Outputs()); got != 5 {
		t.Errorf("outputs = %v, want 5 entries", report.Outputs())
	}
}

func TestProcessTranscriptionFailure(t *testing.T) {
	tests := []struct {
		name        string
		transcriber *fakeTranscriber
	}{
		{"engine error", &fakeTranscriber{err: errors.New("model exploded")}},
		{"empty result", &fakeTranscriber{segments: []subtitle.Segment{{Text: "   "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.transcriber = tt.transcriber

			report, err := f.pipeline().Process(context.Background(), f.source)
			if !errors.Is(err, ErrTranscriptionFailed) {
				t.Fatalf("err = %v, want ErrTranscriptionFailed", err)
			}
			assertStatus(t, report, StageTranscribe, StatusFailed)
			for _, stage := range []Stage{StageTranslate, StageSummary, StageDub, StageCompose} {
				assertStatus(t, report, stage, StatusSkipped)
			}
			assertStatus(t, report, StageArchive, StatusOK)
			assertExists(t, filepath.Join(f.processed, "talk.mp4"), true)
			if f.dubber.entries != nil {
				t.Error("dubber called after failed transcription")
			}
		})
	}
}

func TestProcessTranslationEmpty(t *testing.T) {
	tests := []struct {
		name       string
		translator *fakeTranslator
	}{
		{"all chunks dropped", &fakeTranslator{err: translate.ErrTranslationEmpty}},
		{"no parseable entries", &fakeTranslator{out: "Sorry, I cannot translate this."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.translator = tt.translator

			report, err := f.pipeline().Process(context.Background(), f.source)
			if !errors.Is(err, translate.ErrTranslationEmpty) {
				t.Fatalf("err = %v, want ErrTranslationEmpty", err)
			}
			assertStatus(t, report, StageTranscribe, StatusOK)
			assertStatus(t, report, StageTranslate, StatusFailed)
			assertStatus(t, report, StageDub, StatusSkipped)
			assertStatus(t, report, StageArchive, StatusOK)
			assertExists(t, filepath.Join(f.output, "talk_en.srt"), true)
			assertExists(t, filepath.Join(f.output, "talk.srt"), false)
		})
	}
}

func TestProcessSummaryFailureDoesNotStopDubbing(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = errors.New("rate limited")

	report, err := f.pipeline().Process(context.Background(), f.source)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want summary failure", err)
	}
	assertStatus(t, report, StageSummary, StatusFailed)
	assertStatus(t, report, StageDub, StatusOK)
	assertStatus(t, report, StageCompose, StatusOK)
	assertExists(t, filepath.Join(f.output, "talk_dubbed.mp4"), true)
}

func TestProcessDubFailureSkipsComposition(t *testing.T) {
	f := newFixture(t)
	f.dubber.err = dub.ErrAllSegmentsFailed

	report, err := f.pipeline().Process(context.Background(), f.source)
	if !errors.Is(err, dub.ErrAllSegmentsFailed) {
		t.Fatalf("err = %v, want ErrAllSegmentsFailed", err)
	}
	assertStatus(t, report, StageSummary, StatusOK)
	assertStatus(t, report, StageDub, StatusFailed)
	assertStatus(t, report, StageCompose, StatusSkipped)
	assertStatus(t, report, StageArchive, StatusOK)
}

func TestProcessCompositionFailureRemovesTrack(t *testing.T) {
	f := newFixture(t)
	f.composer.err = compose.ErrCompositionFailed

	report, err := f.pipeline().Process(context.Background(), f.source)
	if !errors.Is(err, compose.ErrCompositionFailed) {
		t.Fatalf("err = %v, want ErrCompositionFailed", err)
	}
	assertStatus(t, report, StageCompose, StatusFailed)
	assertExists(t, f.dubber.track, false)
	assertExists(t, filepath.Join(f.output, "talk_dubbed.mp4"), false)
	assertStatus(t, report, StageArchive, StatusOK)
}

func TestProcessUnknownDurationKeepsSpeed(t *testing.T) {
	f := newFixture(t)
	delete(f.prober.durations, "talk.mp4")

	if _, err := f.pipeline().Process(context.Background(), f.source); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if f.composer.plan.Mode != compose.KeepOriginalSpeed {
		t.Errorf("plan = %+v, want keep-original-speed", f.composer.plan)
	}
}

func TestProcessDisabledStages(t *testing.T) {
	f := newFixture(t)
	p := New(Deps{Transcriber: f.transcriber, Translator: f.translator},
		Options{InputDir: f.input, OutputDir: f.output, ProcessedDir: f.processed}, nil)

	report, err := p.Process(context.Background(), f.source)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertStatus(t, report, StageSummary, StatusSkipped)
	assertStatus(t, report, StageDub, StatusSkipped)
	assertStatus(t, report, StageCompose, StatusSkipped)
	assertExists(t, filepath.Join(f.output, "talk_src.srt"), true)
}

func TestProcessSourceOutsideInputIsNotArchived(t *testing.T) {
	f := newFixture(t)
	outside := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(outside, []byte("v"), 0644); err != nil {
		t.Fatal(err)
	}

	report, err := f.pipeline().Process(context.Background(), outside)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertStatus(t, report, StageArchive, StatusSkipped)
	assertExists(t, outside, true)
}

func TestProcessCancelledRunIsNotArchived(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, _ := f.pipeline().Process(ctx, f.source)
	assertStatus(t, report, StageArchive, StatusSkipped)
	assertExists(t, f.source, true)
}

func TestReportRender(t *testing.T) {
	f := newFixture(t)
	f.dubber.err = dub.ErrAllSegmentsFailed

	report, _ := f.pipeline().Process(context.Background(), f.source)
	out := report.Render()
	for _, want := range []string{"transcribe", "archive", "failed", "skipped", "talk.srt"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q:\n%s", want, out)
		}
	}
}
