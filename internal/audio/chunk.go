package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ChunkInfo is one slice of a longer recording.
type ChunkInfo struct {
	Path      string
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
}

// planChunks cuts [0, total) into consecutive windows of size step; the last
// window is shortened to end at total.
func planChunks(audioPath string, total, step time.Duration, outputDir string) []ChunkInfo {
	ext := filepath.Ext(audioPath)
	stem := strings.TrimSuffix(filepath.Base(audioPath), ext)

	var chunks []ChunkInfo
	for start := time.Duration(0); start < total; start += step {
		i := len(chunks)
		chunks = append(chunks, ChunkInfo{
			Path:      filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d%s", stem, i, ext)),
			Index:     i,
			StartTime: start,
			EndTime:   min(start+step, total),
		})
	}
	return chunks
}

// ChunkAudio splits an audio file into chunkDuration pieces with at most
// concurrency ffmpeg processes running. Chunks are returned in playback order.
// On failure every chunk already written is removed.
func (p *Processor) ChunkAudio(
	ctx context.Context,
	audioPath string,
	chunkDuration time.Duration,
	outputDir string,
	concurrency int,
) ([]ChunkInfo, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunkDuration)
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	total, err := p.prober.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	chunks := planChunks(audioPath, total, chunkDuration, outputDir)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

loop:
	for _, chunk := range chunks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Go(func() {
			defer func() { <-sem }()
			if err := p.cut(ctx, audioPath, chunk); err != nil {
				cancel(fmt.Errorf("failed to create chunk %d: %w", chunk.Index, err))
			}
		})
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		_ = CleanupChunks(chunks)
		return nil, err
	}
	return chunks, nil
}

// cut copies the chunk's time window out of audioPath without re-encoding.
func (p *Processor) cut(ctx context.Context, audioPath string, chunk ChunkInfo) error {
	stream := ffmpeg.Input(audioPath, ffmpeg.KwArgs{"ss": chunk.StartTime.Seconds()}).
		Output(chunk.Path, ffmpeg.KwArgs{
			"t": (chunk.EndTime - chunk.StartTime).Seconds(),
			"c": "copy",
		}).
		OverWriteOutput()
	return p.runner.Run(ctx, stream)
}

// CleanupChunks removes chunk files, ignoring ones that were never written.
func CleanupChunks(chunks []ChunkInfo) error {
	var lastErr error
	for _, chunk := range chunks {
		if chunk.Path == "" {
			continue
		}
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
