package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of a scrape run
const (
	OutcomeScraped = "scraped"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeSample  = "sample"
)

// Metrics holds the collectors of the scrape pipeline
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	concerts      *prometheus.GaugeVec
	candidates    *prometheus.GaugeVec
	scrapeDur     prometheus.Summary
	lastSuccessTS prometheus.Gauge
	publishErrors prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "concertworker",
		Name:      "scrape_runs_total",
		Help:      "Scrape runs by source and outcome.",
	}, []string{"source", "outcome"})
	m.concerts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "concertworker",
		Name:      "stored_concerts",
		Help:      "Concerts stored by the latest run, by source.",
	}, []string{"source"})
	m.candidates = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "concertworker",
		Name:      "scrape_candidates",
		Help:      "Candidate elements found by the latest scrape, by strategy.",
	}, []string{"strategy"})
	m.scrapeDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace:  "concertworker",
		Name:       "scrape_duration_seconds",
		Help:       "Duration of scrape runs.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "concertworker",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last scrape that stored scraped concerts.",
	})
	m.publishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "concertworker",
		Name:      "publish_errors_total",
		Help:      "Failed stream publishes.",
	})

	if reg != nil {
		reg.MustRegister(
			m.runsTotal,
			m.concerts,
			m.candidates,
			m.scrapeDur,
			m.lastSuccessTS,
			m.publishErrors,
		)
	}
	return m
}

// ObserveRun records one scrape run
func (m *Metrics) ObserveRun(source, outcome, strategy string, candidates, stored int, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(source, outcome).Inc()
	m.concerts.WithLabelValues(source).Set(float64(stored))
	if strategy != "" {
		m.candidates.WithLabelValues(strategy).Set(float64(candidates))
	}
	m.scrapeDur.Observe(d.Seconds())
	if outcome == OutcomeScraped {
		m.lastSuccessTS.SetToCurrentTime()
	}
}

// PublishFailed counts a failed publish
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}
