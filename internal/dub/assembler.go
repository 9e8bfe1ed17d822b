// Package dub turns a translated subtitle track into one continuous voice
// track: entries are grouped into batches, each batch is synthesized
// separately and the pieces are stream-copied together in batch order.
package dub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hua1232/AI-video-translate-lear/internal/logging"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

var (
	ErrNoContent              = errors.New("no subtitle content to dub")
	ErrSegmentSynthesisFailed = errors.New("segment synthesis failed")
	ErrAllSegmentsFailed      = errors.New("all dub segments failed")
	ErrConcatenationFailed    = errors.New("dub concatenation failed")
)

// Synthesizer writes speech for text to outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, outPath string) error
}

// Concatenator joins the files listed in an ffmpeg concat manifest into
// outPath without re-encoding.
type Concatenator interface {
	Concat(ctx context.Context, manifestPath, outPath string) error
}

type Options struct {
	BatchSize    int
	Voice        string
	WorkDir      string
	Concurrency  int
	BatchTimeout time.Duration // per synthesis call, 0 for none
}

type Assembler struct {
	synth   Synthesizer
	concat  Concatenator
	logger  *logging.Logger
	options Options
}

func NewAssembler(synth Synthesizer, concat Concatenator, logger *logging.Logger, opts Options) *Assembler {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{
		synth:   synth,
		concat:  concat,
		logger:  logger,
		options: opts,
	}
}

// outcome of one batch; exactly one of Path, Err or Skipped is set
type segmentResult struct {
	Batch   Batch
	Path    string
	Err     error
	Skipped bool
}

// Assemble synthesizes entries and returns the path of the merged track,
// final_dub_<name>.mp3 in the work directory. The caller owns that file.
// Per-batch failures are logged and skipped. Segment files and the manifest
// never outlive the call.
func (a *Assembler) Assemble(ctx context.Context, name string, entries []subtitle.Entry) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoContent
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if err := os.MkdirAll(a.options.WorkDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}

	batches := Batches(entries, a.options.BatchSize)
	results := make([]segmentResult, len(batches))

	var attempted []string
	defer func() {
		for _, p := range attempted {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				a.logger.Warnw("Failed to remove dub segment", "path", p, "error", err)
			}
		}
	}()

	sem := make(chan struct{}, a.options.Concurrency)
	var wg sync.WaitGroup

	for i, batch := range batches {
		results[i].Batch = batch
		if isBlank(batch.Text) {
			results[i].Skipped = true
			a.logger.Infow("Skipping empty dub batch", "batch", i+1, "total", len(batches))
			continue
		}

		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		segPath := filepath.Join(a.options.WorkDir, fmt.Sprintf("temp_%s_%d.mp3", base, i))
		attempted = append(attempted, segPath)

		wg.Go(func() {
			defer func() { <-sem }()
			results[i] = a.synthesize(ctx, batch, segPath, len(batches))
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	segments, failed := collect(results)
	if len(segments) == 0 {
		if len(failed) == 0 {
			return "", ErrAllSegmentsFailed
		}
		return "", fmt.Errorf("%w: %w", ErrAllSegmentsFailed, errors.Join(failed...))
	}

	manifest := filepath.Join(a.options.WorkDir, fmt.Sprintf("concat_%s.txt", base))
	attempted = append(attempted, manifest)
	if err := writeManifest(manifest, segments); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConcatenationFailed, err)
	}

	out := filepath.Join(a.options.WorkDir, fmt.Sprintf("final_dub_%s.mp3", base))
	if err := a.concat.Concat(ctx, manifest, out); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("%w: %v", ErrConcatenationFailed, err)
	}

	a.logger.Infow("Dub track assembled",
		"segments", len(segments),
		"failed", len(failed),
		"batches", len(batches),
		"path", out,
	)
	return out, nil
}

func (a *Assembler) synthesize(ctx context.Context, batch Batch, segPath string, total int) segmentResult {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if a.options.BatchTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, a.options.BatchTimeout)
	}
	defer cancel()

	err := a.synth.Synthesize(callCtx, batch.Text, a.options.Voice, segPath)
	if err == nil {
		if info, statErr := os.Stat(segPath); statErr != nil || info.Size() == 0 {
			err = errors.New("no audio written")
		}
	}
	if err != nil {
		a.logger.Warnw("Dub batch failed",
			"batch", batch.Index+1,
			"total", total,
			"error", err,
		)
		return segmentResult{
			Batch: batch,
			Err:   fmt.Errorf("%w: batch %d: %v", ErrSegmentSynthesisFailed, batch.Index, err),
		}
	}

	a.logger.Debugw("Dub batch synthesized", "batch", batch.Index+1, "total", total)
	return segmentResult{Batch: batch, Path: segPath}
}

// collect splits batch outcomes into synthesized segment paths, in batch
// order, and per-batch failures. Skipped batches appear in neither.
func collect(results []segmentResult) (segments []string, failed []error) {
	for _, r := range results {
		switch {
		case r.Path != "":
			segments = append(segments, r.Path)
		case r.Err != nil:
			failed = append(failed, r.Err)
		}
	}
	return segments, failed
}

// writes an ffmpeg concat demuxer list with absolute, single-quoted paths
func writeManifest(path string, segments []string) error {
	var sb strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return err
		}
		sb.WriteString("file '")
		sb.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		sb.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
