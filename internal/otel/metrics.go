package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tmux-vault"

// Metrics holds all OTEL metric instruments for tmux-vault.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Save counters
	PanesCaptured  metric.Int64Counter
	CaptureErrors  metric.Int64Counter
	BackupsCreated metric.Int64Counter

	// Compaction counters
	BackupsPurged metric.Int64Counter
	PurgeErrors   metric.Int64Counter

	// Restore counters
	PanesRestored metric.Int64Counter
	RestoreErrors metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.PanesCaptured, err = meter.Int64Counter("save.panes_captured",
		metric.WithDescription("Number of panes whose content was captured"))
	if err != nil {
		return nil, err
	}

	m.CaptureErrors, err = meter.Int64Counter("save.capture_errors",
		metric.WithDescription("Number of pane captures that failed (content saved empty)"))
	if err != nil {
		return nil, err
	}

	m.BackupsCreated, err = meter.Int64Counter("save.backups_created",
		metric.WithDescription("Number of backup archives written"))
	if err != nil {
		return nil, err
	}

	m.BackupsPurged, err = meter.Int64Counter("compact.backups_purged",
		metric.WithDescription("Number of backup archives deleted by compaction"))
	if err != nil {
		return nil, err
	}

	m.PurgeErrors, err = meter.Int64Counter("compact.purge_errors",
		metric.WithDescription("Number of backup deletions that failed"))
	if err != nil {
		return nil, err
	}

	m.PanesRestored, err = meter.Int64Counter("restore.panes_restored",
		metric.WithDescription("Number of panes recreated with content injected"))
	if err != nil {
		return nil, err
	}

	m.RestoreErrors, err = meter.Int64Counter("restore.errors",
		metric.WithDescription("Number of recoverable restore failures partitioned by phase (session, window, pane)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordPaneCaptured records one successful pane capture.
func (m *Metrics) RecordPaneCaptured(ctx context.Context) {
	if m == nil {
		return
	}
	m.PanesCaptured.Add(ctx, 1)
}

// RecordCaptureError records one failed pane capture.
func (m *Metrics) RecordCaptureError(ctx context.Context) {
	if m == nil {
		return
	}
	m.CaptureErrors.Add(ctx, 1)
}

// RecordBackupCreated records one written backup archive.
func (m *Metrics) RecordBackupCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.BackupsCreated.Add(ctx, 1)
}

// RecordCompaction records the outcome of one compaction run.
func (m *Metrics) RecordCompaction(ctx context.Context, purged, errs int) {
	if m == nil {
		return
	}
	m.BackupsPurged.Add(ctx, int64(purged))
	if errs > 0 {
		m.PurgeErrors.Add(ctx, int64(errs))
	}
}

// RecordPaneRestored records one pane recreated during restore.
func (m *Metrics) RecordPaneRestored(ctx context.Context) {
	if m == nil {
		return
	}
	m.PanesRestored.Add(ctx, 1)
}

// RecordRestoreError records a recoverable restore failure in the
// given phase: "session", "window" or "pane".
func (m *Metrics) RecordRestoreError(ctx context.Context, phase string) {
	if m == nil {
		return
	}
	m.RestoreErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("restore.phase", phase),
	))
}
