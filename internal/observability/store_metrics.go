package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreCollector exposes data store metrics. It satisfies
// datastore.MetricsRecorder.
type StoreCollector struct {
	gatherer prometheus.Gatherer

	Entities       *prometheus.GaugeVec
	UpdateDuration prometheus.Histogram
	Flushes        *prometheus.CounterVec
	PrefsCommits   *prometheus.CounterVec
}

// NewStoreCollector registers store metrics against the provided registerer.
func NewStoreCollector(reg prometheus.Registerer) (*StoreCollector, error) {
	reg, gatherer := registry(reg)

	entities := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "simdata_entities",
		Help: "Current number of committed entities, labeled by kind.",
	}, []string{"kind"})
	entities, err := registerGaugeVec(reg, entities, "simdata_entities")
	if err != nil {
		return nil, err
	}

	update := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "simdata_update_duration_seconds",
		Help:    "Duration of DataStore.Update calls.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	})
	update, err = registerHistogram(reg, update, "simdata_update_duration_seconds")
	if err != nil {
		return nil, err
	}

	flushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simdata_flush_total",
		Help: "Flush requests, labeled by recursion scope and result.",
	}, []string{"scope", "result"})
	flushes, err = registerCounterVec(reg, flushes, "simdata_flush_total")
	if err != nil {
		return nil, err
	}

	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simdata_prefs_commits_total",
		Help: "Committed preference transactions, labeled by entity kind.",
	}, []string{"kind"})
	commits, err = registerCounterVec(reg, commits, "simdata_prefs_commits_total")
	if err != nil {
		return nil, err
	}

	return &StoreCollector{
		gatherer:       gatherer,
		Entities:       entities,
		UpdateDuration: update,
		Flushes:        flushes,
		PrefsCommits:   commits,
	}, nil
}

// Handler exposes the registry the collector was registered against.
func (c *StoreCollector) Handler() http.Handler {
	return handlerFor(c.gatherer)
}

// SetEntityCounts sets the entity gauge for every kind in counts.
func (c *StoreCollector) SetEntityCounts(counts map[string]int) {
	if c == nil || c.Entities == nil {
		return
	}
	for kind, n := range counts {
		c.Entities.WithLabelValues(kind).Set(float64(n))
	}
}

// ObserveUpdate records the duration of one time update.
func (c *StoreCollector) ObserveUpdate(d time.Duration) {
	if c == nil || c.UpdateDuration == nil {
		return
	}
	c.UpdateDuration.Observe(d.Seconds())
}

// RecordFlush counts a flush request; result is "ok" or "error".
func (c *StoreCollector) RecordFlush(scope string, err error) {
	if c == nil || c.Flushes == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Flushes.WithLabelValues(scope, result).Inc()
}

// RecordPrefsCommit counts a committed preference transaction.
func (c *StoreCollector) RecordPrefsCommit(kind string) {
	if c == nil || c.PrefsCommits == nil {
		return
	}
	c.PrefsCommits.WithLabelValues(kind).Inc()
}
