// Package metrics defines and registers all custom Prometheus metrics for
// the user directory API. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "userdirectory"

// RegistrationsTotal counts account registrations.
// Label:
//   - result: "created", "conflict", or "invalid"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure" (failures are not broken down further,
//     mirroring the uniform invalid-credentials contract)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RoleUpdatesTotal counts role changes applied by administrators.
// Label:
//   - role: the newly assigned role
var RoleUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_updates_total",
		Help:      "Total number of role updates, by assigned role.",
	},
	[]string{"role"},
)

// DeletionsTotal counts user records removed by administrators.
var DeletionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deletions_total",
		Help:      "Total number of user records deleted.",
	},
)

// GuardDenialsTotal counts requests rejected by an access-control guard
// before reaching the directory service.
// Label:
//   - guard: "auth", "role", or "self"
var GuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_denials_total",
		Help:      "Total number of requests denied by an access-control guard.",
	},
	[]string{"guard"},
)
