// Package metrics exposes the Prometheus counters for logins and identity
// reconciliation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login paths and results.
const (
	PathRemote   = "remote"
	PathFallback = "fallback"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Reconciliation modes.
const (
	ModePush     = "push"
	ModePull     = "pull"
	ModeRemoteID = "remote_id"
	ModeDelete   = "delete"
)

// Recorder counts authentication and reconciliation outcomes.
type Recorder struct {
	logins          *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// NewRecorder registers the counters on reg. A nil registerer yields a
// recorder whose methods do nothing.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return &Recorder{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projects_crm_login_attempts_total",
		Help: "Login attempts by decision path and result.",
	}, []string{"path", "result"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projects_crm_identity_reconciliations_total",
		Help: "Identity reconciliation outcomes by mode.",
	}, []string{"mode", "outcome"})
	reg.MustRegister(logins, reconciliations)
	return &Recorder{
		logins:          logins,
		reconciliations: reconciliations,
	}
}

// Login records one login decision.
func (r *Recorder) Login(path, result string) {
	if r == nil || r.logins == nil {
		return
	}
	r.logins.WithLabelValues(normalizeLabel(path), normalizeLabel(result)).Inc()
}

// Reconciliation records one reconciled identity record.
func (r *Recorder) Reconciliation(mode, outcome string) {
	if r == nil || r.reconciliations == nil {
		return
	}
	r.reconciliations.WithLabelValues(normalizeLabel(mode), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
