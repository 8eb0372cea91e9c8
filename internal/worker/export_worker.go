// Package worker exports settled ledger entries to an external sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/metrics"
	"financas/internal/sheets"
	"financas/internal/storage"
)

// ExportWorker reacts to entry events and exports settled entries to
// Google Sheets. A periodic pending scan re-drives entries whose event
// was lost.
type ExportWorker struct {
	store     storage.Store
	writer    sheets.EntryWriter
	batchSize int
}

func NewExportWorker(store storage.Store, writer sheets.EntryWriter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleEntryEvent processes a single entry event. The message only
// carries the entry id; the current row is always re-read from storage
// so stale messages cannot export outdated data.
func (w *ExportWorker) HandleEntryEvent(ctx context.Context, msg *events.EntryEventMessage) error {
	slog.InfoContext(ctx, "Processing entry event",
		"event_id", msg.EventID,
		"event", msg.Event,
		"entry_id", msg.EntryID)

	if msg.Event == events.EventDeleted {
		// Nothing to export for a deleted entry.
		return nil
	}

	entry, err := w.store.FindEntryByID(ctx, msg.EntryID)
	if err != nil {
		return fmt.Errorf("find entry %d: %w", msg.EntryID, err)
	}
	if entry == nil {
		slog.WarnContext(ctx, "Entry no longer exists, skipping export",
			"entry_id", msg.EntryID)
		return nil
	}

	return w.exportIfSettled(ctx, *entry)
}

// ProcessPendingExports exports settled entries that were never picked
// up from the event stream. Backup mechanism in case messages are lost.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, entry := range pending {
		if err := w.exportIfSettled(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export entry",
				"entry_id", entry.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck re-drives a larger pending batch when the worker boots,
// to recover from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending exports for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	exported := 0
	failed := 0
	for _, entry := range pending {
		if err := w.exportIfSettled(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export entry during startup",
				"entry_id", entry.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)

	return nil
}

func (w *ExportWorker) exportIfSettled(ctx context.Context, entry core.Entry) error {
	if entry.Status != core.StatusSettled {
		slog.DebugContext(ctx, "Entry not settled, skipping export",
			"entry_id", entry.ID,
			"status", entry.Status)
		return nil
	}

	ref, err := w.writer.Append(ctx, entry)
	if err != nil {
		metrics.ExportsFailed.Inc()
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkExported(ctx, entry.ID); err != nil {
		// The export itself worked; the next pending scan will retry
		// the mark and append a duplicate row at worst.
		slog.ErrorContext(ctx, "Failed to mark entry as exported",
			"entry_id", entry.ID, "error", err)
	}

	metrics.ExportsSucceeded.Inc()
	slog.InfoContext(ctx, "Entry exported",
		"entry_id", entry.ID,
		"sheet_ref", ref,
		"amount", entry.Amount.String())

	return nil
}
