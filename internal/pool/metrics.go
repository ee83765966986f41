package pool

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "pool",
		Name:      "loads_total",
		Help:      "Total engine loads",
	})

	loadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "pool",
		Name:      "load_failures_total",
		Help:      "Total failed engine loads",
	})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "pool",
		Name:      "evictions_total",
		Help:      "Total LRU evictions performed to make room",
	})

	idleUnloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "pool",
		Name:      "idle_unloads_total",
		Help:      "Total instances unloaded by the idle sweep",
	})

	loadedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "pool",
		Name:      "loaded_instances",
		Help:      "Resident instances (loading included)",
	})
)

func init() {
	prometheus.MustRegister(loadsTotal, loadFailuresTotal, evictionsTotal, idleUnloadsTotal, loadedGauge)
}
