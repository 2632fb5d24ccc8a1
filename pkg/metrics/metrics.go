// Package metrics expone los contadores Prometheus de ventas e inventario.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Resultados de ProcessSale usados como etiqueta.
const (
	OutcomeProcessed         = "processed"
	OutcomeRejected          = "rejected"
	OutcomeCompensated       = "compensated"
	OutcomeInconsistentState = "inconsistent_state"
)

// Sales contadores del orquestador. Un registro propio permite instancias aisladas en pruebas.
type Sales struct {
	Processed     *prometheus.CounterVec
	Cancelled     prometheus.Counter
	Compensations *prometheus.CounterVec
	Duration      prometheus.Histogram
}

// NewSales crea los contadores y los registra en reg (nil = no registrar).
func NewSales(reg prometheus.Registerer) *Sales {
	m := &Sales{
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ventas",
			Name:      "sales_total",
			Help:      "Ventas intentadas por resultado.",
		}, []string{"outcome"}),
		Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ventas",
			Name:      "sales_cancelled_total",
			Help:      "Ventas anuladas.",
		}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ventas",
			Name:      "saga_compensations_total",
			Help:      "Pasos de compensación ejecutados por resultado.",
		}, []string{"result"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ventas",
			Name:      "process_sale_duration_seconds",
			Help:      "Duración de ProcessSale.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Processed, m.Cancelled, m.Compensations, m.Duration)
	}
	return m
}
