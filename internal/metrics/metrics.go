package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcomes used as the "outcome" label.
const (
	OutcomeVerified     = "verified"
	OutcomeNoCode       = "no_code"
	OutcomeExpired      = "expired"
	OutcomeInvalid      = "invalid"
	OutcomeUserNotFound = "user_not_found"
	OutcomeError        = "error"
)

var (
	CodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authcode",
		Name:      "codes_issued_total",
		Help:      "Total login codes issued.",
	})

	SendThrottledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authcode",
		Name:      "send_throttled_total",
		Help:      "Total send-code requests rejected by the per-email throttle.",
	})

	IdentitiesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "authcode",
		Name:      "identities_created_total",
		Help:      "Total identity records created on first send-code.",
	})

	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authcode",
		Name:      "verifications_total",
		Help:      "Total verify-code attempts, by outcome.",
	}, []string{"outcome"})

	BestEffortFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authcode",
		Name:      "best_effort_failures_total",
		Help:      "Failures swallowed by best-effort steps, by step.",
	}, []string{"step"})
)

// Register adds all collectors to the default registry.
func Register() {
	prometheus.MustRegister(
		CodesIssuedTotal,
		SendThrottledTotal,
		IdentitiesCreatedTotal,
		VerificationsTotal,
		BestEffortFailuresTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
