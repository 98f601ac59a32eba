// Package metrics registers the service's Prometheus collectors on the
// default registry, exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ContractsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compliance_contracts_registered_total",
		Help: "Contracts registered since process start.",
	})

	ComplianceChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_checks_total",
		Help: "Compliance checks by resulting status.",
	}, []string{"status"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_llm_requests_total",
		Help: "LLM calls by operation and outcome.",
	}, []string{"operation", "status"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compliance_notifications_total",
		Help: "Email notifications by outcome.",
	}, []string{"status"})

	RevisionsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compliance_revisions_applied_total",
		Help: "Contract revisions applied.",
	})
)
