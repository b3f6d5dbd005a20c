package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := SetCorrelationID(context.Background(), "cid-123")
	require.Equal(t, "cid-123", GetCorrelationID(ctx))
}

func TestCorrelationIDMissing(t *testing.T) {
	require.Empty(t, GetCorrelationID(context.Background()))
}
