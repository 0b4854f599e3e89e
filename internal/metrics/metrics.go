package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CapturesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsehr_captures_total",
		Help: "Screen captures uploaded and recorded.",
	})

	CaptureFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsehr_capture_failures_total",
		Help: "Screen capture attempts that failed at grab, encode, upload or record.",
	})

	MemosEscalatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsehr_memos_escalated_total",
		Help: "Reminder memos created by the escalation pass.",
	})

	PayrollRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulsehr_payroll_runs_total",
		Help: "Payroll generation runs completed by the worker pool.",
	})

	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsehr_jobs_processed_total",
		Help: "Background jobs processed, labeled by type and outcome.",
	}, []string{"type", "outcome"})
)
