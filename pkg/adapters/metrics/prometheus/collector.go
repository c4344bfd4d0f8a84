package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	valueChanges  *prometheus.CounterVec
	cellsComputed *prometheus.CounterVec
	cellDuration  *prometheus.HistogramVec

	evaluatePasses *prometheus.CounterVec
	passDuration   prometheus.Histogram
	affectedCells  prometheus.Histogram

	cellStates    *prometheus.GaugeVec
	streamClients prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		valueChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellflow_value_changes_total",
				Help: "Total number of value cell mutations",
			},
			[]string{"value"},
		),
		cellsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellflow_cells_computed_total",
				Help: "Total number of cell computations by result state",
			},
			[]string{"cell", "status"},
		),
		cellDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cellflow_cell_duration_seconds",
				Help:    "Cell compute duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"cell"},
		),
		evaluatePasses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellflow_evaluate_passes_total",
				Help: "Total number of evaluation passes by outcome",
			},
			[]string{"status"},
		),
		passDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cellflow_evaluate_pass_duration_seconds",
				Help:    "Evaluation pass duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
			},
		),
		affectedCells: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cellflow_affected_cells",
				Help:    "Number of cells recomputed per evaluation pass",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		cellStates: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cellflow_cell_states",
				Help: "Current number of cells per recompute state",
			},
			[]string{"state"},
		),
		streamClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cellflow_stream_clients",
				Help: "Number of connected WebSocket stream clients",
			},
		),
	}
}

// RecordValueChanged counts a value cell mutation.
func (c *Collector) RecordValueChanged(value string) {
	c.valueChanges.WithLabelValues(value).Inc()
}

// RecordCellComputed counts a cell computation and observes its duration.
func (c *Collector) RecordCellComputed(cell, status string, duration time.Duration) {
	c.cellsComputed.WithLabelValues(cell, status).Inc()
	c.cellDuration.WithLabelValues(cell).Observe(duration.Seconds())
}

// RecordEvaluatePass counts an evaluation pass and observes its size and
// duration.
func (c *Collector) RecordEvaluatePass(status string, affected int, duration time.Duration) {
	c.evaluatePasses.WithLabelValues(status).Inc()
	c.passDuration.Observe(duration.Seconds())
	c.affectedCells.Observe(float64(affected))
}

// SetCellStates records the current state distribution of the graph.
func (c *Collector) SetCellStates(stale, computing, fresh, errored int) {
	c.cellStates.WithLabelValues("stale").Set(float64(stale))
	c.cellStates.WithLabelValues("computing").Set(float64(computing))
	c.cellStates.WithLabelValues("fresh").Set(float64(fresh))
	c.cellStates.WithLabelValues("errored").Set(float64(errored))
}

// SetStreamClients records the number of connected stream clients.
func (c *Collector) SetStreamClients(count int) {
	c.streamClients.Set(float64(count))
}
