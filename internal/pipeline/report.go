package pipeline

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/texpdfa/internal/texpatch"
	"git.home.luguber.info/inful/texpdfa/internal/verapdf"
)

// StageResult classifies how a stage ended.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// Report accumulates per-stage results for one pipeline run. It is owned by
// the controller during the run and read-only afterwards.
type Report struct {
	RunID          string
	OutputPath     string
	PatchOutcome   texpatch.Outcome
	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	Warnings       []error
	Errors         []error
	Verdict        *verapdf.Verdict
}

func newReport(outputPath string) *Report {
	return &Report{
		RunID:          uuid.NewString(),
		OutputPath:     outputPath,
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

func (r *Report) recordSuccess(stage StageName) {
	r.StageResults[stage] = StageResultSuccess
}

func (r *Report) recordWarning(stage StageName, err error) {
	r.StageResults[stage] = StageResultWarning
	r.Warnings = append(r.Warnings, err)
}

func (r *Report) recordError(stage StageName, se *StageError) {
	if se.Kind == StageErrorCanceled {
		r.StageResults[stage] = StageResultCanceled
	} else {
		r.StageResults[stage] = StageResultFatal
	}
	r.Errors = append(r.Errors, se)
}
