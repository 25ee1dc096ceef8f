// Package metrics exposes Prometheus collectors for group and auction activity.
// Each Collector owns a private registry so tests and multiple servers in one
// process never collide on the default registerer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/chitfund/internal/models"
)

// Collector records chit fund metrics.
type Collector struct {
	registry *prometheus.Registry

	groupsCreated prometheus.Counter
	joins         *prometheus.CounterVec
	groups        *prometheus.GaugeVec

	cyclesOpened prometheus.Counter
	bids         *prometheus.CounterVec
	settlements  *prometheus.CounterVec
	noBids       prometheus.Counter
	extensions   prometheus.Counter
	discountRate prometheus.Histogram

	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
}

// NewCollector creates a collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "chitfund"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.groupsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "group",
		Name:      "created_total",
		Help:      "Total number of groups created",
	})
	c.joins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "group",
		Name:      "joins_total",
		Help:      "Join attempts by result (ok or error kind)",
	}, []string{"result"})
	c.groups = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "group",
		Name:      "count",
		Help:      "Current number of groups by status",
	}, []string{"status"})

	c.cyclesOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auction",
		Name:      "opened_total",
		Help:      "Total number of auction cycles opened",
	})
	c.bids = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auction",
		Name:      "bids_total",
		Help:      "Bids by result (ok or error kind)",
	}, []string{"result"})
	c.settlements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auction",
		Name:      "settlements_total",
		Help:      "Settled cycles by trigger (rpc or sweeper)",
	}, []string{"trigger"})
	c.noBids = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auction",
		Name:      "no_bids_total",
		Help:      "Settlement attempts that found no bids",
	})
	c.extensions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auction",
		Name:      "extensions_total",
		Help:      "Deadline extensions of auctions without bids",
	})
	c.discountRate = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "auction",
		Name:      "discount_ratio",
		Help:      "Winning discount as a fraction of the contribution amount",
		Buckets:   prometheus.LinearBuckets(0.05, 0.05, 19),
	})

	c.sweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "runs_total",
		Help:      "Sweeper runs by result",
	}, []string{"result"})
	c.sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sweeper",
		Name:      "duration_seconds",
		Help:      "Time taken by one sweep over all groups",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	c.registry.MustRegister(
		c.groupsCreated,
		c.joins,
		c.groups,
		c.cyclesOpened,
		c.bids,
		c.settlements,
		c.noBids,
		c.extensions,
		c.discountRate,
		c.sweeps,
		c.sweepDuration,
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := models.ErrorKind(err); kind != "" {
		return kind
	}
	return "internal"
}

func (c *Collector) RecordGroupCreated() {
	c.groupsCreated.Inc()
}

func (c *Collector) RecordJoin(err error) {
	c.joins.WithLabelValues(result(err)).Inc()
}

// RecordGroupCounts replaces the per-status group gauge.
func (c *Collector) RecordGroupCounts(counts map[models.GroupStatus]int) {
	for _, status := range []models.GroupStatus{models.GroupForming, models.GroupActive, models.GroupCompleted} {
		c.groups.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func (c *Collector) RecordCycleOpened() {
	c.cyclesOpened.Inc()
}

func (c *Collector) RecordBid(err error) {
	c.bids.WithLabelValues(result(err)).Inc()
}

// RecordSettlement counts a settled cycle and observes its discount ratio.
func (c *Collector) RecordSettlement(trigger string, s *models.Settlement, contribution models.Amount) {
	c.settlements.WithLabelValues(trigger).Inc()
	if contribution > 0 {
		c.discountRate.Observe(float64(s.Discount) / float64(contribution))
	}
}

func (c *Collector) RecordNoBids() {
	c.noBids.Inc()
}

func (c *Collector) RecordExtension() {
	c.extensions.Inc()
}

func (c *Collector) RecordSweep(duration time.Duration, err error) {
	label := "ok"
	if err != nil {
		label = "error"
	}
	c.sweeps.WithLabelValues(label).Inc()
	c.sweepDuration.Observe(duration.Seconds())
}
