package jsonfile

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collection store collectors.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	records    *prometheus.GaugeVec
}

// NewMetrics creates the store collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jsonfile_operations_total",
			Help: "Total number of collection document loads and saves.",
		}, []string{"collection", "operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jsonfile_operation_duration_seconds",
			Help:    "Duration of collection document loads and saves in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"collection", "operation"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jsonfile_collection_records",
			Help: "Number of records in a collection after the last load or save.",
		}, []string{"collection"}),
	}
	reg.MustRegister(m.operations, m.duration, m.records)
	return m
}
