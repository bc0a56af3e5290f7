package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecontent_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitecontent_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DocumentOperationsTotal считает операции хранилища по результату:
	// ok, invalid, conflict, not_found, error.
	DocumentOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecontent_document_operations_total",
			Help: "Document store operations by collection, operation and result.",
		},
		[]string{"collection", "op", "result"},
	)

	SkippedDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecontent_skipped_documents_total",
			Help: "Malformed or unreadable documents skipped while listing.",
		},
		[]string{"collection"},
	)

	// CollectionReadFailuresTotal считает случаи, когда не удалось прочитать сам каталог коллекции.
	CollectionReadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitecontent_collection_read_failures_total",
			Help: "Collection directory listings that failed.",
		},
		[]string{"collection"},
	)
)
