// Package metrics exposes prometheus instrumentation for the export pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts requests issued against source APIs by status code.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketferry",
		Name:      "api_requests_total",
		Help:      "HTTP requests issued against source APIs",
	}, []string{"source", "code"})

	// RateLimitRetries counts retry sleeps triggered by rate-limit responses.
	RateLimitRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketferry",
		Name:      "rate_limit_retries_total",
		Help:      "Retries performed after a rate-limit response",
	}, []string{"source"})

	// RecordsExported counts canonical records appended to output sinks.
	RecordsExported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketferry",
		Name:      "records_exported_total",
		Help:      "Canonical records written per resource type",
	}, []string{"source", "resource"})

	// ExportWarnings counts non-fatal failures downgraded to warnings.
	ExportWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketferry",
		Name:      "export_warnings_total",
		Help:      "Non-fatal failures downgraded to warnings during an export",
	}, []string{"source"})

	// MappingDefaults counts unrecognized vocabulary values that fell back
	// to a canonical default. Useful for schema-drift detection.
	MappingDefaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketferry",
		Name:      "mapping_defaults_total",
		Help:      "Unrecognized status/priority values mapped to defaults",
	}, []string{"source", "field"})
)
