package tts

import (
	"context"
	"fmt"
	"os"

	"github.com/hua1232/AI-video-translate-lear/internal/ffmpeg"
)

const defaultEdgeBinary = "edge-tts"

// EdgeSynthesizer shells out to the edge-tts command line client.
type EdgeSynthesizer struct {
	binary string
	exec   ffmpeg.Executor
}

func NewEdgeSynthesizer(opts Options, exec ffmpeg.Executor) *EdgeSynthesizer {
	binary := opts.BinaryPath
	if binary == "" {
		binary = defaultEdgeBinary
	}
	if exec == nil {
		exec = ffmpeg.NewExecutor()
	}
	return &EdgeSynthesizer{binary: binary, exec: exec}
}

func (s *EdgeSynthesizer) Synthesize(ctx context.Context, text, voice, outPath string) error {
	if voice == "" {
		voice = DefaultVoice(ProviderEdge)
	}
	if err := ensureDir(outPath); err != nil {
		return err
	}

	_, err := s.exec.Execute(ctx, s.binary,
		"--voice", voice,
		"--text="+text,
		"--write-media", outPath,
	)
	if err != nil {
		return fmt.Errorf("edge-tts failed: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("edge-tts wrote no audio: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("edge-tts wrote an empty file")
	}
	return nil
}
