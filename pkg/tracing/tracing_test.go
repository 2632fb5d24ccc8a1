package tracing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/jhoicas/Ventas-api/pkg/tracing"
)

func TestInit_SinEndpointNoExporta(t *testing.T) {
	shutdown, err := tracing.Init("ventas-api", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_ConEndpointRegistraProvider(t *testing.T) {
	shutdown, err := tracing.Init("ventas-api", "http://127.0.0.1:14268/api/traces")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid(), "el provider global genera spans reales")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
