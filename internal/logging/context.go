package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldTable is the standardized structured logging key for the table being processed.
	FieldTable = "table"
	// FieldStage is the standardized structured logging key for audit step names.
	FieldStage = "stage"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	tableKey
	stageKey
)

// WithRunID tags ctx with a batch run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithTable tags ctx with the table being processed.
func WithTable(ctx context.Context, table string) context.Context {
	return context.WithValue(ctx, tableKey, table)
}

// WithStage tags ctx with the current audit step.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// contextFields returns the run, table and stage tags stored in ctx.
func contextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := stringFromContext(ctx, runIDKey); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if table, ok := stringFromContext(ctx, tableKey); ok {
		fields = append(fields, slog.String(FieldTable, table))
	}
	if stage, ok := stringFromContext(ctx, stageKey); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
