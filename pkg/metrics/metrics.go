package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tournament_wallet"

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registrations   *prometheus.CounterVec
	walletOps       *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
}

// New registers the service counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		walletOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_operations_total",
			Help:      "Ledger writes by transaction type and result.",
		}, []string{"type", "result"}),
		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Compensating refunds issued after a failed slot reservation.",
		}, []string{"result"}),
		reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_repairs_total",
			Help:      "Orphaned entry fee charges handled by the reconciler, by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RegistrationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WalletOperation(txType, result string) {
	if m == nil {
		return
	}
	m.walletOps.WithLabelValues(txType, result).Inc()
}

func (m *Metrics) Compensation(result string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) ReconciliationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

type HealthFunc func(ctx context.Context) error

// Handler serves /metrics from gatherer and /healthz from healthFn.
func Handler(gatherer prometheus.Gatherer, healthFn HealthFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
