package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"screenpilot/internal/errors"
	"screenpilot/internal/step"
)

// DefaultSettleInterval is the pause after each successful step, giving the
// desktop time to react before the next injection.
const DefaultSettleInterval = 100 * time.Millisecond

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Outcome records one executed step.
type Outcome struct {
	Index    int           `json:"index"`
	StepID   string        `json:"step_id"`
	Type     step.Type     `json:"type"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the immutable record of one run.
type Result struct {
	RunID       string    `json:"run_id"`
	Status      Status    `json:"status"`
	FailedIndex int       `json:"failed_index"` // -1 when completed
	Outcomes    []Outcome `json:"outcomes"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
}

// StepExecutor runs a single step.
type StepExecutor interface {
	Execute(ctx context.Context, s step.Step) error
}

// Runner executes a step list strictly sequentially, aborting on the first
// failure. Retry belongs to the locator inside a single step, never here.
type Runner struct {
	exec   StepExecutor
	settle time.Duration
	sink   Sink
}

// NewRunner creates a runner. settle <= 0 selects the default interval.
func NewRunner(exec StepExecutor, settle time.Duration, sink Sink) *Runner {
	if settle <= 0 {
		settle = DefaultSettleInterval
	}
	if sink == nil {
		sink = SlogSink{}
	}
	return &Runner{exec: exec, settle: settle, sink: sink}
}

// Run executes every step in order. Cancellation is checked before each
// step, never mid-step. Side effects already issued are not rolled back.
func (r *Runner) Run(ctx context.Context, list *step.List) Result {
	steps := list.Snapshot()
	result := Result{
		RunID:       newRunID(),
		Status:      StatusCompleted,
		FailedIndex: -1,
		Started:     time.Now(),
	}
	log := slog.With("run_id", result.RunID)
	log.Info("run starting", "steps", len(steps))

	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			cancelErr := errors.Wrap(err, errors.Cancelled, "run cancelled")
			result.Status = StatusAborted
			result.FailedIndex = i
			result.Outcomes = append(result.Outcomes, Outcome{Index: i, StepID: s.ID, Type: s.Type, Err: cancelErr.Error()})
			r.sink.Log(LevelWarning, fmt.Sprintf("Run cancelled before step %d", i+1))
			break
		}

		r.sink.Log(LevelInfo, fmt.Sprintf("Executing step %d/%d: %s", i+1, len(steps), s.Summary()))
		start := time.Now()
		err := r.exec.Execute(ctx, s)
		outcome := Outcome{Index: i, StepID: s.ID, Type: s.Type, Duration: time.Since(start)}

		if err != nil {
			outcome.Err = err.Error()
			result.Outcomes = append(result.Outcomes, outcome)
			result.Status = StatusAborted
			result.FailedIndex = i
			log.Error("step failed", "index", i, "type", s.Type, "code", errors.CodeOf(err).String(), "error", err)
			r.sink.Log(LevelError, fmt.Sprintf("Step %d failed (%s): %v", i+1, errors.CodeOf(err), err))
			break
		}

		result.Outcomes = append(result.Outcomes, outcome)
		r.sink.Log(LevelSuccess, fmt.Sprintf("Step %d completed", i+1))

		if i < len(steps)-1 {
			if err := sleepCtx(ctx, r.settle); err != nil {
				// Treated as cancellation before the next step.
				continue
			}
		}
	}

	result.Finished = time.Now()
	if result.Status == StatusCompleted {
		r.sink.Log(LevelSuccess, fmt.Sprintf("Run completed: %d steps", len(steps)))
		log.Info("run completed", "steps", len(steps))
	} else {
		log.Warn("run aborted", "failed_index", result.FailedIndex)
	}
	return result
}

// newRunID generates a short random identifier carried through run logs.
func newRunID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
