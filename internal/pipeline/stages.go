package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StageName identifies one pipeline stage.
type StageName string

const (
	StagePreflight StageName = "preflight"
	StageMetadata  StageName = "metadata"
	StagePatch     StageName = "patch"
	StageCompile   StageName = "compile"
	StageConvert   StageName = "convert"
	StageRepair    StageName = "repair"
	StageLinearize StageName = "linearize"
	StageCleanup   StageName = "cleanup"
	StageVerify    StageName = "verify"
)

// Stage is a discrete unit of work in the run.
type Stage func(ctx context.Context) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// namedStage pairs a stage with its name for ordered execution.
type namedStage struct {
	name StageName
	fn   Stage
}

// runStages executes stages strictly in order, recording timing and result
// per stage. Warnings are recorded and execution continues; any other failure
// aborts the run with the stage's error surfaced.
func (c *Controller) runStages(ctx context.Context, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			c.report.recordError(st.name, se)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx)
		c.report.StageDurations[st.name] = time.Since(t0)

		if err == nil {
			c.report.recordSuccess(st.name)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors abort by default.
			se = newFatalStageError(st.name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			c.report.recordWarning(st.name, se)
			c.logger.Warn("Stage finished with warning", "stage", st.name, "error", se.Err)
			continue
		default:
			c.report.recordError(st.name, se)
			return se
		}
	}
	return nil
}
