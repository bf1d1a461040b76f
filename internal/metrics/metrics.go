// Package metrics define las métricas Prometheus del dominio. Viven en un
// package propio para evitar ciclos de import entre services y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OAuthExchangeFailures cuenta intercambios code→token→profile fallidos.
	OAuthExchangeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_exchange_failures_total",
		Help: "Intercambios OAuth fallidos por provider y razón",
	}, []string{"provider", "reason"})

	// LinkOperations cuenta links/unlinks de identidades secundarias.
	LinkOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_link_operations_total",
		Help: "Operaciones de link/unlink por kind",
	}, []string{"kind", "op"})

	// RiskLookups cuenta consultas de reputación IP por resultado.
	RiskLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_lookups_total",
		Help: "Consultas de reputación IP (ok|degraded)",
	}, []string{"outcome"})

	// RoleLookupFailures cuenta lookups de rol que degradaron al rol mínimo.
	RoleLookupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "role_lookup_failures_total",
		Help: "Lookups de rol fallidos (degradados a unverified)",
	})

	// FeatureLookupFailures cuenta checks de feature degradados a false.
	FeatureLookupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feature_lookup_failures_total",
		Help: "Checks de feature fallidos (degradados a false)",
	})
)

// Register registra las métricas del dominio en el registry dado
// (o el default si es nil). Tolerante a doble registro.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		OAuthExchangeFailures,
		LinkOperations,
		RiskLookups,
		RoleLookupFailures,
		FeatureLookupFailures,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
