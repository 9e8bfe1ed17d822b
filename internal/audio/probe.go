package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrProbeFailed marks a duration that could not be determined.
var ErrProbeFailed = errors.New("duration probe failed")

// Prober reads media durations with ffprobe.
type Prober struct {
	runner Runner
}

func NewProber(runner Runner) *Prober {
	return &Prober{runner: runner}
}

// Duration returns the container duration of path. Every failure wraps
// ErrProbeFailed.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	out, err := p.runner.Probe(ctx, "-v", "quiet", "-print_format", "json", "-show_format", path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	return parseDuration(out)
}

func parseDuration(raw string) (time.Duration, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return 0, fmt.Errorf("%w: parse ffprobe output: %v", ErrProbeFailed, err)
	}

	value := strings.TrimSpace(probe.Format.Duration)
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("%w: no duration reported", ErrProbeFailed)
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("%w: bad duration %q", ErrProbeFailed, value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
