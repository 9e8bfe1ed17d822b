package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// Executor runs external commands.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

type commandExecutor struct{}

// NewExecutor returns an Executor backed by os/exec.
func NewExecutor() Executor {
	return &commandExecutor{}
}

// Execute runs name with args and returns stdout. A non-zero exit is an error
// carrying the command's stderr.
func (e *commandExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Runner executes ffmpeg-go command graphs and ffprobe queries with the
// binaries resolved by Ensure.
type Runner struct {
	exec        Executor
	ffmpegPath  func() (string, error)
	ffprobePath func() (string, error)
}

func NewRunner(exec Executor) *Runner {
	if exec == nil {
		exec = NewExecutor()
	}
	return &Runner{
		exec:        exec,
		ffmpegPath:  FFmpegPath,
		ffprobePath: FFprobePath,
	}
}

// Run compiles stream into ffmpeg arguments and runs them.
func (r *Runner) Run(ctx context.Context, stream *ffmpeggo.Stream) error {
	bin, err := r.ffmpegPath()
	if err != nil {
		return err
	}

	args := append([]string{"-hide_banner", "-loglevel", "error"}, stream.GetArgs()...)
	if _, err := r.exec.Execute(ctx, bin, args...); err != nil {
		return err
	}
	return nil
}

// Probe runs ffprobe with args and returns its stdout.
func (r *Runner) Probe(ctx context.Context, args ...string) (string, error) {
	bin, err := r.ffprobePath()
	if err != nil {
		return "", err
	}
	return r.exec.Execute(ctx, bin, args...)
}
