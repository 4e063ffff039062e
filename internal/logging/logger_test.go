package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	logger, err := Init("debug", true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, L())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	_, err := Init("loud", false)
	require.Error(t, err)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.NotNil(t, FromContext(ctx, nil))
}
