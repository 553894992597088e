// Package services – metrics
//
// Domain counters exported next to the HTTP metrics on /metrics. Label values
// are drawn from small fixed sets.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// proposalsTotal counts propose calls by outcome (created|duplicate).
	proposalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ltrain_proposals_total",
			Help: "Meeting proposals handled, by outcome.",
		},
		[]string{"outcome"},
	)

	// responsesTotal counts respond calls by resulting status (accepted|rejected).
	responsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ltrain_responses_total",
			Help: "Responses to meeting proposals, by resulting status.",
		},
		[]string{"status"},
	)

	// sweepRuns counts sub-sweeps by task (sessions|matches) and result (ok|error).
	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ltrain_sweep_runs_total",
			Help: "Maintenance sweep sub-task runs, by task and result.",
		},
		[]string{"task", "result"},
	)
)

func init() {
	prometheus.MustRegister(proposalsTotal, responsesTotal, sweepRuns)
}
