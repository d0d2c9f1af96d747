package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsFlushed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oerms_notifications_flushed_total",
		Help: "Queued notifications handled by the worker, by outcome.",
	},
	[]string{"outcome"},
)
