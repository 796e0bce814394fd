package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// A sync cycle moves through fixed stages in order:
//
//	Idle → Fetching → Reconciling → Persisting → Notifying → Idle
//
// Only Fetching can fail. A failed fetch skips straight to Notifying with
// the failure message; the next tick starts over.

// SyncState is the stage a SyncEngine is in.
type SyncState string

const (
	StateIdle        SyncState = "idle"
	StateFetching    SyncState = "fetching"
	StateReconciling SyncState = "reconciling"
	StatePersisting  SyncState = "persisting"
	StateNotifying   SyncState = "notifying"
)

// CycleError wraps errors with the stage where they occurred.
type CycleError struct {
	Stage SyncState
	Cause error
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CycleError) Unwrap() error {
	return e.Cause
}

// StageOf extracts the failed stage from a cycle error.
func StageOf(err error) (SyncState, bool) {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr.Stage, true
	}

	return "", false
}

// runStage enters state, runs fn inside its own span and wraps a failure
// in a CycleError.
func (e *SyncEngine) runStage(ctx context.Context, state SyncState, fn func(context.Context) error) error {
	e.setState(state)

	ctx, span := telemetry.Tracer().Start(ctx, "sync."+string(state))
	defer span.End()

	logger := logging.FromContext(ctx).With(slog.String("stage", string(state)))
	logger.DebugContext(ctx, "stage started")

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "stage failed", slog.Any("error", err))

		return &CycleError{Stage: state, Cause: err}
	}

	logger.DebugContext(ctx, "stage finished")

	return nil
}
