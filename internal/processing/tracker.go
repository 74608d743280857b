// File path: internal/processing/tracker.go

// Package processing contains the tracked pipeline runs: the execution
// lifecycle tracker and the exhaustive prompt processor.
package processing

import (
	"context"
	"time"

	"github.com/vbertoni/contratos/internal/sqlite"
)

// Execution lifecycle statuses. A run starts as running and is finalized
// exactly once as success or failed; there is no resumption.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TrackerStore is the slice of the relational store the tracker writes
// through.
type TrackerStore interface {
	CreateExecution(ctx context.Context, ex sqlite.Execution) (int64, error)
	UpdateExecution(ctx context.Context, id int64, upd sqlite.ExecutionUpdate) error
}

// Tracker records the lifecycle of one long-running task as an execution
// row. Every call is a synchronous store write; write failures propagate to
// the caller unretried.
type Tracker struct {
	store     TrackerStore
	taskName  string
	className string

	executionID int64
	started     bool
}

// NewTracker builds a tracker for a task. Nothing is written until Start.
func NewTracker(store TrackerStore, taskName, className string) *Tracker {
	return &Tracker{store: store, taskName: taskName, className: className}
}

// Start creates the running-status execution row and returns its id.
func (t *Tracker) Start(ctx context.Context) (int64, error) {
	id, err := t.store.CreateExecution(ctx, sqlite.Execution{
		TaskName:  t.taskName,
		ClassName: t.className,
	})
	if err != nil {
		return 0, err
	}
	t.executionID = id
	t.started = true
	return id, nil
}

// ExecutionID returns the tracked row id, zero before Start.
func (t *Tracker) ExecutionID() int64 {
	return t.executionID
}

// Update applies the supplied fields to the tracked row. A no-op if Start
// was never called.
func (t *Tracker) Update(ctx context.Context, upd sqlite.ExecutionUpdate) error {
	if !t.started {
		return nil
	}
	return t.store.UpdateExecution(ctx, t.executionID, upd)
}

// Finish sets end_time and the terminal status. Expected exactly once per
// run; a no-op if Start was never called.
func (t *Tracker) Finish(ctx context.Context, status string) error {
	if !t.started {
		return nil
	}
	now := time.Now().UTC()
	return t.store.UpdateExecution(ctx, t.executionID, sqlite.ExecutionUpdate{
		Status:  &status,
		EndTime: &now,
	})
}
