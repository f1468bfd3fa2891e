// Package metrics defines and registers all custom Prometheus metrics for the
// TaskHub API. It is the single source of truth for metric names, labels, and
// help strings. Everything registers via promauto at init time, so importing
// the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskhub"

// TodosCreatedTotal counts newly created todos.
// Label:
//   - priority: "Low", "Medium", or "High"
var TodosCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "todos_created_total",
		Help:      "Total number of todos created, by priority.",
	},
	[]string{"priority"},
)

// TodoConflictsTotal counts mutations rejected because the supplied version
// token no longer matched the stored one.
var TodoConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "todo_conflicts_total",
		Help:      "Total number of todo mutations rejected by the version check.",
	},
)

// ImportRowsTotal counts processed import rows.
// Label:
//   - result: "created", "overwritten", "skipped", or "rejected"
var ImportRowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Total number of import rows processed, by outcome.",
	},
	[]string{"result"},
)

// LoginFailuresTotal counts rejected login attempts.
// Label:
//   - reason: "invalid_credentials" or "locked"
var LoginFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_failures_total",
		Help:      "Total number of failed login attempts, by reason.",
	},
	[]string{"reason"},
)
