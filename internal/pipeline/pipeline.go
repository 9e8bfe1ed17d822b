package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hua1232/AI-video-translate-lear/internal/compose"
	"github.com/hua1232/AI-video-translate-lear/internal/logging"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
	"github.com/hua1232/AI-video-translate-lear/internal/translate"
)

var ErrTranscriptionFailed = errors.New("transcription failed")

type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) ([]subtitle.Segment, error)
}

type Translator interface {
	Translate(ctx context.Context, srt string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type DubAssembler interface {
	Assemble(ctx context.Context, name string, entries []subtitle.Entry) (string, error)
}

type Composer interface {
	Compose(ctx context.Context, videoPath, audioPath, outPath string, plan compose.Plan) error
}

type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Deps are the collaborators of a pipeline. Summarizer and Dubber may be nil
// to disable those stages; Composer and Prober are required with a Dubber.
type Deps struct {
	Transcriber Transcriber
	Translator  Translator
	Summarizer  Summarizer
	Dubber      DubAssembler
	Composer    Composer
	Prober      Prober
}

type Options struct {
	InputDir       string // only sources inside it are archived
	OutputDir      string
	ProcessedDir   string
	SourceLanguage string // suffix of the source subtitle file, "src" when empty
}

type Pipeline struct {
	deps   Deps
	opts   Options
	logger *logging.Logger
}

func New(deps Deps, opts Options, logger *logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = "src"
	}
	return &Pipeline{deps: deps, opts: opts, logger: logger}
}

// Process runs every stage for one video and archives the source. The
// report is always returned; the error joins the failures of all stages.
func (p *Pipeline) Process(ctx context.Context, videoPath string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	report := newReport(runID, videoPath)
	logger := p.logger.With("run_id", runID, "file", filepath.Base(videoPath))

	logger.Infow("Processing video", "path", videoPath)

	if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
		report.fail(StageTranscribe, 0, fmt.Errorf("failed to create output dir: %w", err))
		skipRest(report, StageTranslate, "no output folder")
	} else {
		p.run(ctx, videoPath, report, logger)
	}

	p.archive(ctx, videoPath, report, logger)

	report.Elapsed = time.Since(start)
	err := report.Err()
	if err != nil {
		logger.Warnw("Video processed with failures", "elapsed", report.Elapsed, "error", err)
	} else {
		logger.Infow("Video processed", "elapsed", report.Elapsed, "outputs", len(report.Outputs()))
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, videoPath string, report *Report, logger *logging.Logger) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	entries, ok := p.transcribe(ctx, videoPath, base, report, logger)
	if !ok {
		skipRest(report, StageTranslate, "transcription failed")
		return
	}

	translated, ok := p.translate(ctx, entries, base, report, logger)
	if !ok {
		skipRest(report, StageSummary, "translation failed")
		return
	}

	p.summarize(ctx, translated, base, report, logger)
	p.dub(ctx, videoPath, translated, base, report, logger)
}

// skipRest marks from and every later stage before archive as skipped.
func skipRest(report *Report, from Stage, reason string) {
	skipping := false
	for _, stage := range stages {
		if stage == from {
			skipping = true
		}
		if skipping && stage != StageArchive {
			report.skip(stage, reason)
		}
	}
}

func (p *Pipeline) transcribe(ctx context.Context, videoPath, base string, report *Report, logger *logging.Logger) ([]subtitle.Entry, bool) {
	start := time.Now()
	logger.Infow("Transcribing")

	segments, err := p.deps.Transcriber.Transcribe(ctx, videoPath)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		logger.Errorw("Transcription failed", "error", err)
		report.fail(StageTranscribe, time.Since(start), err)
		return nil, false
	}

	entries := subtitle.FromSegments(segments)
	if len(entries) == 0 {
		err = fmt.Errorf("%w: no speech recognized", ErrTranscriptionFailed)
		logger.Errorw("Transcription failed", "error", err)
		report.fail(StageTranscribe, time.Since(start), err)
		return nil, false
	}

	srtPath := filepath.Join(p.opts.OutputDir, fmt.Sprintf("%s_%s.srt", base, p.opts.SourceLanguage))
	if err := subtitle.WriteFile(srtPath, subtitle.Format(entries)); err != nil {
		logger.Errorw("Failed to write source subtitles", "path", srtPath, "error", err)
		report.fail(StageTranscribe, time.Since(start), err)
		return nil, false
	}

	logger.Infow("Transcription complete", "entries", len(entries), "path", srtPath)
	report.ok(StageTranscribe, time.Since(start), fmt.Sprintf("%d entries", len(entries)), srtPath)
	return entries, true
}

func (p *Pipeline) translate(ctx context.Context, entries []subtitle.Entry, base string, report *Report, logger *logging.Logger) ([]subtitle.Entry, bool) {
	start := time.Now()
	logger.Infow("Translating subtitles")

	text, err := p.deps.Translator.Translate(ctx, subtitle.Format(entries))
	if err == nil {
		entries, err = subtitle.ParseString(text)
		if err == nil && len(entries) == 0 {
			err = fmt.Errorf("%w: no subtitle entries in translated text", translate.ErrTranslationEmpty)
		}
	}
	if err != nil {
		logger.Errorw("Translation failed", "error", err)
		report.fail(StageTranslate, time.Since(start), err)
		return nil, false
	}

	srtPath := filepath.Join(p.opts.OutputDir, base+".srt")
	if err := subtitle.WriteFile(srtPath, subtitle.Format(entries)); err != nil {
		logger.Errorw("Failed to write translated subtitles", "path", srtPath, "error", err)
		report.fail(StageTranslate, time.Since(start), err)
		return nil, false
	}

	logger.Infow("Translation complete", "entries", len(entries), "path", srtPath)
	report.ok(StageTranslate, time.Since(start), fmt.Sprintf("%d entries", len(entries)), srtPath)
	return entries, true
}

func (p *Pipeline) summarize(ctx context.Context, entries []subtitle.Entry, base string, report *Report, logger *logging.Logger) {
	if p.deps.Summarizer == nil {
		report.skip(StageSummary, "disabled")
		return
	}

	start := time.Now()
	logger.Infow("Generating summary")

	summary, err := p.deps.Summarizer.Summarize(ctx, subtitle.PlainText(entries))
	if err != nil {
		logger.Warnw("Summary failed", "error", err)
		report.fail(StageSummary, time.Since(start), err)
		return
	}

	path := filepath.Join(p.opts.OutputDir, base+"_summary.txt")
	if err := subtitle.WriteFile(path, summary); err != nil {
		logger.Warnw("Failed to write summary", "path", path, "error", err)
		report.fail(StageSummary, time.Since(start), err)
		return
	}

	logger.Infow("Summary written", "path", path)
	report.ok(StageSummary, time.Since(start), fmt.Sprintf("%d chars", len([]rune(summary))), path)
}

func (p *Pipeline) dub(ctx context.Context, videoPath string, entries []subtitle.Entry, base string, report *Report, logger *logging.Logger) {
	if p.deps.Dubber == nil {
		report.skip(StageDub, "disabled")
		report.skip(StageCompose, "dubbing disabled")
		return
	}

	start := time.Now()
	logger.Infow("Assembling dub track", "entries", len(entries))

	track, err := p.deps.Dubber.Assemble(ctx, base, entries)
	if err != nil {
		logger.Errorw("Dub assembly failed", "error", err)
		report.fail(StageDub, time.Since(start), err)
		report.skip(StageCompose, "no dub track")
		return
	}
	defer func() {
		if err := os.Remove(track); err != nil && !os.IsNotExist(err) {
			logger.Warnw("Failed to remove dub track", "path", track, "error", err)
		}
	}()
	report.ok(StageDub, time.Since(start), filepath.Base(track))

	start = time.Now()
	plan := compose.NewPlan(p.duration(ctx, videoPath, logger), p.duration(ctx, track, logger))
	if plan.Clamped {
		logger.Warnw("Dub track is much longer than the video, speed-up clamped; speech may sound rushed",
			"video_seconds", plan.VideoDuration, "audio_seconds", plan.AudioDuration, "factor", plan.Factor)
	}
	logger.Infow("Composing video", "plan", plan.String(),
		"video_seconds", plan.VideoDuration, "audio_seconds", plan.AudioDuration)

	outPath := filepath.Join(p.opts.OutputDir, base+"_dubbed.mp4")
	if err := p.deps.Composer.Compose(ctx, videoPath, track, outPath, plan); err != nil {
		logger.Errorw("Composition failed", "error", err)
		report.fail(StageCompose, time.Since(start), err)
		return
	}

	logger.Infow("Dubbed video written", "path", outPath)
	report.ok(StageCompose, time.Since(start), plan.String(), outPath)
}

// duration returns seconds, or 0 when the probe fails.
func (p *Pipeline) duration(ctx context.Context, path string, logger *logging.Logger) float64 {
	d, err := p.deps.Prober.Duration(ctx, path)
	if err != nil {
		logger.Warnw("Duration unknown", "path", path, "error", err)
		return 0
	}
	return d.Seconds()
}

func (p *Pipeline) archive(ctx context.Context, videoPath string, report *Report, logger *logging.Logger) {
	if !within(p.opts.InputDir, videoPath) {
		report.skip(StageArchive, "source outside input folder")
		return
	}
	// an interrupted run is retried on the next start
	if ctx.Err() != nil {
		report.skip(StageArchive, "cancelled")
		return
	}

	start := time.Now()
	dst := filepath.Join(p.opts.ProcessedDir, filepath.Base(videoPath))
	if err := moveFile(videoPath, dst); err != nil {
		logger.Errorw("Failed to archive source", "path", videoPath, "error", err)
		report.fail(StageArchive, time.Since(start), err)
		return
	}

	logger.Infow("Source archived", "path", dst)
	report.ok(StageArchive, time.Since(start), "", dst)
}
