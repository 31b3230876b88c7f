package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "totalcomp",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of dataset cache lookups broken down by dataset and hit/miss.",
	}, []string{"dataset", "result"})

	cacheLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "totalcomp",
		Subsystem: "cache",
		Name:      "loads_total",
		Help:      "Total number of dataset loads broken down by dataset and outcome.",
	}, []string{"dataset", "result"})

	cacheRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "totalcomp",
		Subsystem: "cache",
		Name:      "rows",
		Help:      "Number of rows in the currently cached dataset.",
	}, []string{"dataset"})
)

func recordCacheRequest(dataset string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(dataset, result).Inc()
}

func recordCacheLoad(dataset string, err error, rows int) {
	if err != nil {
		cacheLoads.WithLabelValues(dataset, "error").Inc()
		return
	}
	cacheLoads.WithLabelValues(dataset, "ok").Inc()
	cacheRows.WithLabelValues(dataset).Set(float64(rows))
}
