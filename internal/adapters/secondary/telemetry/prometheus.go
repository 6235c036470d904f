// Package telemetry implements ports.Telemetry with Prometheus
// counters (a CounterVec each for auth success and failure, a plain
// Counter for account creation), registered at construction
// rather than via package-level init so a test can build its own
// isolated registry.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinelid/authcore/internal/core/ports"
)

// PrometheusTelemetry implements ports.Telemetry.
type PrometheusTelemetry struct {
	authSuccess    *prometheus.CounterVec
	authFailure    *prometheus.CounterVec
	accountCreated prometheus.Counter
}

// NewPrometheusTelemetry registers its collectors against reg and
// returns the adapter. Pass prometheus.NewRegistry() in tests to avoid
// colliding with the default global registry.
func NewPrometheusTelemetry(reg prometheus.Registerer) *PrometheusTelemetry {
	t := &PrometheusTelemetry{
		authSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_auth_success_total",
			Help: "Total successful authentications by method.",
		}, []string{"method"}),
		authFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_auth_failure_total",
			Help: "Total failed authentication attempts by reason.",
		}, []string{"reason"}),
		accountCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_account_created_total",
			Help: "Total accounts created.",
		}),
	}
	reg.MustRegister(t.authSuccess, t.authFailure, t.accountCreated)
	return t
}

func (t *PrometheusTelemetry) AuthSuccess(method string) { t.authSuccess.WithLabelValues(method).Inc() }
func (t *PrometheusTelemetry) AuthFailure(reason string) { t.authFailure.WithLabelValues(reason).Inc() }
func (t *PrometheusTelemetry) AccountCreated()           { t.accountCreated.Inc() }

var _ ports.Telemetry = (*PrometheusTelemetry)(nil)
