package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersSubmitted    prometheus.Counter
	OrdersReplayed     prometheus.Counter
	SubmitFailures     *prometheus.CounterVec // label: stage (auth, order, item)
	RollbackFailures   prometheus.Counter
	AttachmentsSaved   prometheus.Counter
	AttachmentFailures prometheus.Counter
	SubmitLatencySec   prometheus.Histogram

	StatusSyncUpdated prometheus.Counter
	StatusSyncErrors  prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	submitted := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_orders_submitted_total"})
	replayed := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_orders_replayed_total"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "lensportal_submit_failures_total"}, []string{"stage"})
	rollbackFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_rollback_failures_total"})
	attSaved := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_attachments_saved_total"})
	attFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_attachment_failures_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lensportal_submit_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	syncUpdated := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_status_sync_updated_total"})
	syncErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "lensportal_status_sync_errors_total"})

	r.MustRegister(submitted, replayed, failures, rollbackFailures, attSaved, attFailed, latency, syncUpdated, syncErrors)
	return &Registry{
		reg:                r,
		OrdersSubmitted:    submitted,
		OrdersReplayed:     replayed,
		SubmitFailures:     failures,
		RollbackFailures:   rollbackFailures,
		AttachmentsSaved:   attSaved,
		AttachmentFailures: attFailed,
		SubmitLatencySec:   latency,
		StatusSyncUpdated:  syncUpdated,
		StatusSyncErrors:   syncErrors,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
