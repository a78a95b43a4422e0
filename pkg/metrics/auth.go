package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	LoginOutcomeSuccess      = "success"
	LoginOutcomeInvalid      = "invalid_credentials"
	LoginOutcomeLocked       = "locked"
	LoginOutcomeBlocked      = "blocked"
	LoginOutcomeNoCredential = "no_credential"
)

// AuthMetrics tracks login attempts by outcome.
type AuthMetrics struct {
	logins *prometheus.CounterVec
}

// NewAuthMetrics registers the authentication metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(logins)
	return &AuthMetrics{logins: logins}
}

// IncLogin counts a login attempt with the given outcome.
func (m *AuthMetrics) IncLogin(outcome string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(outcome)).Inc()
}
