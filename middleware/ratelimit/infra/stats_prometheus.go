package infra

import (
	"context"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStats expõe os desfechos como counter. A key do caller nunca vira
// label (cardinalidade).
type PrometheusStats struct {
	outcomes *prometheus.CounterVec
}

// NewPrometheusStats registra o counter em reg. Use prometheus.NewRegistry() nos
// testes para não colidir com o registry global.
func NewPrometheusStats(reg prometheus.Registerer) (*PrometheusStats, error) {
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact submissions by final outcome",
		},
		[]string{"outcome"},
	)
	if err := reg.Register(outcomes); err != nil {
		return nil, err
	}
	return &PrometheusStats{outcomes: outcomes}, nil
}

func (s *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	s.outcomes.WithLabelValues(ev.Outcome).Inc()
	return nil
}
