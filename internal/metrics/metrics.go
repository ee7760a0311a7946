// Package metrics counts what a pipeline run did and writes the counts in
// the Prometheus text format, for pickup by a node exporter textfile
// collector.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/leapcal/internal/dtai"
	"github.com/roach88/leapcal/internal/table"
	"github.com/roach88/leapcal/internal/timeline"
)

// Metrics holds the collectors of one run on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	samplesLoaded    *prometheus.CounterVec
	leapsInserted    *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	tableRows        prometheus.Gauge
	expirationDay    prometheus.Gauge
	buildDuration    prometheus.Histogram
}

// New returns a Metrics with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		samplesLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leapcal_samples_loaded_total",
			Help: "Number of ΔT samples loaded into the timeline",
		}, []string{"source"}),
		leapsInserted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leapcal_leaps_inserted_total",
			Help: "Number of extraordinary days in the table, by sign",
		}, []string{"sign"}),
		validationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leapcal_validation_errors_total",
			Help: "Number of table validation findings, by code",
		}, []string{"code"}),
		tableRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "leapcal_table_rows",
			Help: "Number of rows in the generated table",
		}),
		expirationDay: f.NewGauge(prometheus.GaugeOpts{
			Name: "leapcal_table_expiration_day",
			Help: "Julian Day Number of the table's EXPIRATION_DATE",
		}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leapcal_build_duration_seconds",
			Help:    "Wall time of a table build",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// SamplesLoaded counts n samples from src.
func (m *Metrics) SamplesLoaded(src timeline.Source, n int) {
	m.samplesLoaded.WithLabelValues(src.String()).Add(float64(n))
}

// Table records the row count, leap signs and expiration of a table.
func (m *Metrics) Table(rows []dtai.Row, expiration int) {
	m.tableRows.Set(float64(len(rows)))
	m.expirationDay.Set(float64(expiration))
	for _, r := range rows {
		m.leapsInserted.WithLabelValues(strconv.Itoa(r.Length - 86400)).Inc()
	}
}

// Validation counts validation findings by code.
func (m *Metrics) Validation(errs []table.ValidationError) {
	for _, e := range errs {
		m.validationErrors.WithLabelValues(e.Code).Inc()
	}
}

// BuildDuration observes the wall time of a build.
func (m *Metrics) BuildDuration(d time.Duration) {
	m.buildDuration.Observe(d.Seconds())
}

// WriteTextfile writes every collector to path in the text exposition
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
