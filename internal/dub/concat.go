package dub

import (
	"context"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type streamRunner interface {
	Run(ctx context.Context, stream *ffmpeg.Stream) error
}

// FFmpegConcatenator runs the concat demuxer with stream copy.
type FFmpegConcatenator struct {
	runner streamRunner
}

func NewFFmpegConcatenator(runner streamRunner) *FFmpegConcatenator {
	return &FFmpegConcatenator{runner: runner}
}

func (c *FFmpegConcatenator) Concat(ctx context.Context, manifestPath, outPath string) error {
	stream := ffmpeg.Input(manifestPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput()
	return c.runner.Run(ctx, stream)
}
