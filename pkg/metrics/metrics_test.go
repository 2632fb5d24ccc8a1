package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/pkg/metrics"
)

func TestNewSales_RegistraContadores(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSales(reg)

	m.Processed.WithLabelValues(metrics.OutcomeProcessed).Inc()
	m.Processed.WithLabelValues(metrics.OutcomeRejected).Add(2)
	m.Cancelled.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Processed.WithLabelValues(metrics.OutcomeProcessed)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Processed.WithLabelValues(metrics.OutcomeRejected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Cancelled))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewSales_SinRegistro(t *testing.T) {
	m := metrics.NewSales(nil)
	assert.NotPanics(t, func() { m.Cancelled.Inc() })
}
