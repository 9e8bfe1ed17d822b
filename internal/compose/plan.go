// Package compose decides how a dub track is fitted to its video and muxes
// the two with ffmpeg.
package compose

import (
	"fmt"
	"strconv"
)

// MaxTempo is the largest speed-up a single atempo stage supports.
const MaxTempo = 2.0

type Mode int

const (
	KeepOriginalSpeed Mode = iota
	SpeedUpAudio
)

func (m Mode) String() string {
	switch m {
	case SpeedUpAudio:
		return "speed-up-audio"
	default:
		return "keep-original-speed"
	}
}

// Plan records how the dub track will be fitted to the video.
type Plan struct {
	Mode          Mode
	Factor        float64 // audio tempo, 1 when Mode is KeepOriginalSpeed
	VideoDuration float64 // seconds, non-positive when unknown
	AudioDuration float64
	Clamped       bool // the raw factor exceeded MaxTempo
}

// NewPlan speeds the audio up only when it runs longer than the video, by
// audio/video capped at MaxTempo. Equal lengths and unknown durations keep
// the original speed.
func NewPlan(videoSeconds, audioSeconds float64) Plan {
	plan := Plan{
		Mode:          KeepOriginalSpeed,
		Factor:        1,
		VideoDuration: videoSeconds,
		AudioDuration: audioSeconds,
	}
	if videoSeconds <= 0 || audioSeconds <= 0 || audioSeconds <= videoSeconds {
		return plan
	}

	plan.Mode = SpeedUpAudio
	plan.Factor = audioSeconds / videoSeconds
	if plan.Factor > MaxTempo {
		plan.Factor = MaxTempo
		plan.Clamped = true
	}
	return plan
}

// Known reports whether both durations were available.
func (p Plan) Known() bool {
	return p.VideoDuration > 0 && p.AudioDuration > 0
}

func (p Plan) String() string {
	if p.Mode == SpeedUpAudio {
		return fmt.Sprintf("%s(%s)", p.Mode, formatFactor(p.Factor))
	}
	return p.Mode.String()
}

func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
