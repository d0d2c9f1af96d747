package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oerms_auth_tokens_issued_total",
			Help: "Signed tokens by purpose.",
		},
		[]string{"purpose"},
	)

	authFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oerms_auth_failures_total",
			Help: "Rejected credentials and tokens by reason.",
		},
		[]string{"reason"},
	)

	authzDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oerms_authz_denials_total",
			Help: "Failed role, permission and ownership checks by caller role.",
		},
		[]string{"role"},
	)

	principalCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oerms_principal_cache_lookups_total",
			Help: "Principal cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	bulkUploadRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oerms_bulk_upload_rows_total",
			Help: "Bulk result upload rows by outcome.",
		},
		[]string{"outcome"},
	)

	resultsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oerms_results_published_total",
		Help: "Results moved from unpublished to published.",
	})
)
