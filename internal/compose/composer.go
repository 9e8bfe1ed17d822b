package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var ErrCompositionFailed = errors.New("video composition failed")

type streamRunner interface {
	Run(ctx context.Context, stream *ffmpeg.Stream) error
}

// Composer muxes the original video stream with a dub track.
type Composer struct {
	runner streamRunner
}

func NewComposer(runner streamRunner) *Composer {
	return &Composer{runner: runner}
}

// Compose writes the muxed file next to outPath under a hidden partial name
// and renames it into place only after ffmpeg succeeds.
func (c *Composer) Compose(ctx context.Context, videoPath, audioPath, outPath string, plan Plan) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}

	partial := partialPath(outPath)
	_ = os.Remove(partial)

	if err := c.runner.Run(ctx, buildStream(videoPath, audioPath, partial, plan)); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}

	if err := os.Rename(partial, outPath); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}
	return nil
}

// <dir>/.<name>.partial<ext>; the extension stays last so ffmpeg can infer
// the container
func partialPath(outPath string) string {
	dir, file := filepath.Split(outPath)
	ext := filepath.Ext(file)
	return filepath.Join(dir, "."+strings.TrimSuffix(file, ext)+".partial"+ext)
}

func buildStream(videoPath, audioPath, outPath string, plan Plan) *ffmpeg.Stream {
	video := ffmpeg.Input(videoPath).Video()
	dub := ffmpeg.Input(audioPath).Audio()

	kwargs := ffmpeg.KwArgs{"c:v": "copy"}
	if plan.Mode == SpeedUpAudio {
		dub = dub.Filter("atempo", ffmpeg.Args{formatFactor(plan.Factor)})
		kwargs["shortest"] = ""
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video, dub}, outPath, kwargs).
		OverWriteOutput()
}
