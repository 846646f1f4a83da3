package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.False(t, tel.Enabled())
	require.NoError(t, tel.Shutdown(context.Background()))
}
