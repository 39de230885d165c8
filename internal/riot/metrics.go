package riot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teemo_riot_requests_total",
		Help: "Total number of Riot API requests by endpoint and status code",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "teemo_riot_request_duration_seconds",
		Help:    "Duration of Riot API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
