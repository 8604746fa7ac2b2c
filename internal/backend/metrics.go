package backend

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_backend_requests_total",
		Help: "Requests sent to the status backend by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_backend_request_duration_seconds",
		Help:    "Status backend request latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})
)

func observeRequest(endpoint string, start time.Time, err error) {
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code)
	}
	return "error"
}
