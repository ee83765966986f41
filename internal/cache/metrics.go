package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits",
	}, []string{"cache"})

	missesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses (expired entries included)",
	}, []string{"cache"})
)

func init() {
	prometheus.MustRegister(hitsTotal, missesTotal)
}
