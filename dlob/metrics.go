package dlob

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

const metricsNamespace = "dlob"

// Metrics is optional; a nil *Metrics records nothing.
type Metrics struct {
	OrdersInserted    *prometheus.CounterVec
	NodesToFill       *prometheus.CounterVec
	NodesToTrigger    *prometheus.CounterVec
	RestingMigrations prometheus.Counter
	RebuildDuration   prometheus.Histogram
	RebuildOrders     prometheus.Gauge
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		OrdersInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_inserted_total",
			Help:      "Orders inserted into the book by market type and node type.",
		}, []string{"market_type", "node_type"}),
		NodesToFill: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "nodes_to_fill_total",
			Help:      "Fill candidates emitted by market type and source.",
		}, []string{"market_type", "source"}),
		NodesToTrigger: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "nodes_to_trigger_total",
			Help:      "Trigger candidates emitted by market type.",
		}, []string{"market_type"}),
		RestingMigrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resting_migrations_total",
			Help:      "Taking limit orders moved to the resting lists.",
		}),
		RebuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Time spent rebuilding the book from a user snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		RebuildOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rebuild_orders",
			Help:      "Orders in the book after the last rebuild.",
		}),
	}
}

func (p *Metrics) orderInserted(marketType drift.MarketType, nodeType types.DLOBNodeType) {
	if p == nil {
		return
	}
	p.OrdersInserted.WithLabelValues(marketType.String(), nodeType.String()).Inc()
}

func (p *Metrics) nodesToFill(marketType drift.MarketType, source string, count int) {
	if p == nil || count == 0 {
		return
	}
	p.NodesToFill.WithLabelValues(marketType.String(), source).Add(float64(count))
}

func (p *Metrics) nodesToTrigger(marketType drift.MarketType, count int) {
	if p == nil || count == 0 {
		return
	}
	p.NodesToTrigger.WithLabelValues(marketType.String()).Add(float64(count))
}

func (p *Metrics) restingMigrated(count int) {
	if p == nil || count == 0 {
		return
	}
	p.RestingMigrations.Add(float64(count))
}

func (p *Metrics) rebuilt(started time.Time, orders int) {
	if p == nil {
		return
	}
	p.RebuildDuration.Observe(time.Since(started).Seconds())
	p.RebuildOrders.Set(float64(orders))
}
