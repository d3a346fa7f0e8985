package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/pkg/config"
)

func TestSetup_NoopSinEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: true}, "stock-api", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopDeshabilitado(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: false, Endpoint: "http://localhost:4318"}, "stock-api", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_ConEndpoint(t *testing.T) {
	// Dirección no enrutable: no se exporta nada, pero el shutdown debe cerrar limpio.
	shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: true, Endpoint: "http://192.0.2.1:4318"}, "stock-api", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
