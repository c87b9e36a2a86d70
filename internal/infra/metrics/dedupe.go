package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dedupeHitsTotal, dupCacheLookups) }

var dedupeHitsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "image_dedupe_hits_total",
		Help: "Tasks short-circuited to stored because their content hash was already in the duplicate index.",
	},
)

var dupCacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dup_cache_lookups_total",
		Help: "Duplicate-index cache lookups by outcome.",
	},
	[]string{"outcome"}, // 'hit', 'miss', 'error'
)

func IncDedupeHit() { dedupeHitsTotal.Inc() }

func IncDupCacheLookup(outcome string) {
	dupCacheLookups.WithLabelValues(norm(outcome)).Inc()
}
