package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageTranslate  Stage = "translate"
	StageSummary    Stage = "summary"
	StageDub        Stage = "dub"
	StageCompose    Stage = "compose"
	StageArchive    Stage = "archive"
)

// stage order as it appears in a report
var stages = []Stage{StageTranscribe, StageTranslate, StageSummary, StageDub, StageCompose, StageArchive}

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type StageResult struct {
	Stage   Stage
	Status  Status
	Detail  string
	Outputs []string
	Err     error
	Elapsed time.Duration
}

// Report is the outcome of processing one source file.
type Report struct {
	RunID   string
	Source  string
	Stages  []StageResult
	Elapsed time.Duration
}

func newReport(runID, source string) *Report {
	return &Report{RunID: runID, Source: source}
}

func (r *Report) record(res StageResult) {
	r.Stages = append(r.Stages, res)
}

func (r *Report) ok(stage Stage, elapsed time.Duration, detail string, outputs ...string) {
	r.record(StageResult{Stage: stage, Status: StatusOK, Detail: detail, Outputs: outputs, Elapsed: elapsed})
}

func (r *Report) fail(stage Stage, elapsed time.Duration, err error) {
	r.record(StageResult{Stage: stage, Status: StatusFailed, Detail: err.Error(), Err: err, Elapsed: elapsed})
}

func (r *Report) skip(stage Stage, reason string) {
	r.record(StageResult{Stage: stage, Status: StatusSkipped, Detail: reason})
}

// Stage returns the recorded result for stage.
func (r *Report) Stage(stage Stage) (StageResult, bool) {
	for _, res := range r.Stages {
		if res.Stage == stage {
			return res, true
		}
	}
	return StageResult{}, false
}

// Outputs lists every file the run produced, in stage order.
func (r *Report) Outputs() []string {
	var out []string
	for _, res := range r.Stages {
		out = append(out, res.Outputs...)
	}
	return out
}

// Err joins the errors of all failed stages, nil when none failed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Stages {
		if res.Status == StatusFailed && res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Stage, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Render formats the report as a table for terminal output.
func (r *Report) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s (run %s, %s)", r.Source, r.RunID, r.Elapsed.Round(time.Millisecond)))
	tw.AppendHeader(table.Row{"Stage", "Status", "Time", "Detail", "Outputs"})

	for _, res := range r.Stages {
		elapsed := ""
		if res.Status != StatusSkipped {
			elapsed = res.Elapsed.Round(time.Millisecond).String()
		}
		tw.AppendRow(table.Row{
			string(res.Stage),
			string(res.Status),
			elapsed,
			truncateDetail(res.Detail, 60),
			strings.Join(res.Outputs, "\n"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func truncateDetail(s string, maxRunes int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-3]) + "..."
}
