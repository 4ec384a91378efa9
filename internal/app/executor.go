package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
)

// Operations that change published state run in five steps:
//
//	VALIDATE  inputs and preconditions, before any work
//	PERFORM   the work itself
//	VERIFY    the outcome, independently of what Perform claims
//	ARCHIVE   the verified state; nothing is published before this step
//	RESPOND   with the caller-facing result
//
// A failure at any step stops the operation, so an ingest that produced
// unusable output never replaces the live catalog.

// ExecutionStep names a step of an Operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
type ExecutionError struct {
	Step  ExecutionStep
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Executor runs Operations with per-step logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation holds the step functions of one use case. Nil steps are skipped
// and pass the zero value on.
type Operation[I, P, V, O any] struct {
	Name     string
	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// Execute runs op on input. Errors from a step are returned as *ExecutionError.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	logger := exec.loggerFor(ctx).With(slog.String("operation", op.Name))
	start := time.Now()

	_, err := step(ctx, logger, StepValidate, op.Validate != nil, func() (struct{}, error) {
		return struct{}{}, op.Validate(ctx, input)
	})
	if err != nil {
		return zero, err
	}

	performed, err := step(ctx, logger, StepPerform, op.Perform != nil, func() (P, error) {
		return op.Perform(ctx, input)
	})
	if err != nil {
		return zero, err
	}

	verified, err := step(ctx, logger, StepVerify, op.Verify != nil, func() (V, error) {
		return op.Verify(ctx, input, performed)
	})
	if err != nil {
		return zero, err
	}

	_, err = step(ctx, logger, StepArchive, op.Archive != nil, func() (struct{}, error) {
		return struct{}{}, op.Archive(ctx, input, verified)
	})
	if err != nil {
		return zero, err
	}

	out, err := step(ctx, logger, StepRespond, op.Respond != nil, func() (O, error) {
		return op.Respond(ctx, input, verified)
	})
	if err != nil {
		return zero, err
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}

func step[T any](ctx context.Context, logger *slog.Logger, name ExecutionStep, defined bool, fn func() (T, error)) (T, error) {
	var zero T
	if !defined {
		return zero, nil
	}

	logger.DebugContext(ctx, "step started", slog.String("step", string(name)))

	out, err := fn()
	if err != nil {
		level := slog.LevelError
		if name == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "step failed",
			slog.String("step", string(name)),
			slog.Any("error", err),
		)

		return zero, &ExecutionError{Step: name, Cause: err}
	}

	return out, nil
}

func (e *Executor) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != logging.Default() {
		return logger
	}

	return e.logger
}

// GetExecutionStep extracts the failed step from err.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
