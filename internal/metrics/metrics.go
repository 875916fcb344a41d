// Package metrics holds the Prometheus collectors shared by the reconciler,
// the renderers and the editor. Collectors register with the default
// registry; expose them with promhttp.Handler().
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcilerEvents counts ledger notifications by event type and outcome.
	ReconcilerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splatter_reconciler_events_total",
		Help: "Canvas notifications handled by the reconciler, by type and outcome",
	}, []string{"type", "outcome"})

	// ReconcilerReloads counts full snapshot refetches.
	ReconcilerReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splatter_reconciler_reloads_total",
		Help: "Full canvas refetches by reason",
	}, []string{"reason"})

	// ReconcilerApplyDuration observes how long one notification took to merge.
	ReconcilerApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splatter_reconciler_apply_duration_seconds",
		Help:    "Time to merge one canvas notification into local state",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.25, 1},
	})

	// PanelSyncs counts back buffer flushes on the LED panel.
	PanelSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splatter_matrix_syncs_total",
		Help: "LED panel syncs by kind (full or patch)",
	}, []string{"kind"})

	// PanelPixelsWritten counts canvas cells written to the back buffer.
	PanelPixelsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splatter_matrix_cells_written_total",
		Help: "Canvas cells written to the LED panel back buffer",
	})

	// LedgerTransactions counts editor transactions by kind and result.
	LedgerTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splatter_ledger_transactions_total",
		Help: "Ledger write transactions submitted by the editor, by kind and result",
	}, []string{"kind", "result"})

	// LiveViewClients tracks connected websocket viewers.
	LiveViewClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splatter_liveview_clients",
		Help: "Connected live view websocket clients",
	})
)

// Result returns the label value for a transaction outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
