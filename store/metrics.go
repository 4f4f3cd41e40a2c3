package store

import "github.com/prometheus/client_golang/prometheus"

var (
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storesync_cache_fetch_total",
			Help: "Total cache fetches by cache name and result",
		},
		[]string{"cache", "result"},
	)

	toggleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storesync_wishlist_toggle_total",
			Help: "Total wishlist toggle attempts by result",
		},
		[]string{"result"},
	)

	rollbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storesync_wishlist_rollback_total",
			Help: "Total optimistic wishlist toggles rolled back after server rejection",
		},
	)

	cartBadgeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storesync_cart_badge_count",
			Help: "Current distinct-line badge count of the cart cache",
		},
	)
)

func init() {
	prometheus.MustRegister(fetchTotal)
	prometheus.MustRegister(toggleTotal)
	prometheus.MustRegister(rollbackTotal)
	prometheus.MustRegister(cartBadgeCount)
}

const (
	resultOK    = "ok"
	resultError = "error"
)
