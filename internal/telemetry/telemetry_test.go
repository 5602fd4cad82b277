package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.False(t, IsEnabled())
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartDirectorySpanWithoutInit(t *testing.T) {
	ctx, span := StartDirectorySpan(context.Background(), "CreateUser")
	require.NotNil(t, span)

	// No-op tracer produces an invalid span context, so no trace ID.
	assert.Empty(t, TraceID(ctx))

	EndDirectorySpan(span, 201, nil)
}

func TestRecordErrorNilIsNoOp(t *testing.T) {
	// Must not panic without an active span.
	RecordError(context.Background(), nil)
}
