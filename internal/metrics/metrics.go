// Package metrics holds the Prometheus collectors for ledger activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ajo"

var (
	ContributionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contributions_recorded_total",
		Help:      "Contributions appended to the ledger, by target kind.",
	}, []string{"target"})

	GroupJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "group_joins_total",
		Help:      "Join attempts, by result.",
	}, []string{"result"})

	CycleAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_advances_total",
		Help:      "Cycles closed and advanced.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
