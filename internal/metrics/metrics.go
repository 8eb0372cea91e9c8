// Package metrics exposes the Prometheus instruments shared by the API
// server and the export worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_entries_created_total",
		Help: "Ledger entries created.",
	})

	EntriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_entries_deleted_total",
		Help: "Ledger entries deleted.",
	})

	StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financas_entry_status_updates_total",
		Help: "Entry status transitions, labeled by target status.",
	}, []string{"status"})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_auth_failures_total",
		Help: "Failed authentication attempts.",
	})

	ExportsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_exports_succeeded_total",
		Help: "Entries exported to the spreadsheet.",
	})

	ExportsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_exports_failed_total",
		Help: "Entry export attempts that failed.",
	})
)
