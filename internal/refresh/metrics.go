package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK     = "ok"
	resultError  = "error"
	resultRacing = "racing"
)

var (
	refreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_refreshes_total",
		Help: "Refresh calls by kind and result",
	}, []string{"kind", "result"})

	refreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_refresh_duration_seconds",
		Help:    "Duration of accepted refreshes",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	lastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pulse_refresh_last_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh by kind",
	}, []string{"kind"})
)
