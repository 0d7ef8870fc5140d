package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OWMAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grlweather_owm_api_calls_total",
			Help: "Total OpenWeatherMap current weather API calls",
		},
		[]string{"status"},
	)

	OWMAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grlweather_owm_api_latency_seconds",
			Help:    "OpenWeatherMap API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	OWMRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grlweather_owm_api_retries_total",
			Help: "OpenWeatherMap calls retried after a rate limit response",
		},
	)

	CityStatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grlweather_city_status_updates_total",
			Help: "City status writes by collection and resulting state",
		},
		[]string{"collection", "state"},
	)

	FetchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grlweather_fetches_in_flight",
			Help: "City weather fetches started but not yet settled",
		},
	)

	StaleCompletionsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grlweather_stale_completions_dropped_total",
			Help: "Fetch completions ignored because a newer fetch for the same city was started",
		},
	)
)
