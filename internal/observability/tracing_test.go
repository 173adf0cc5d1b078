package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracing_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "snapcircle-test", Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpan_FinishAcceptsError(t *testing.T) {
	ctx, finish := StartSpan(context.Background(), "FriendService.SendRequest", UserAttr("user.id", 7))
	assert.NotNil(t, trace.SpanFromContext(ctx))
	finish(errors.New("boom"))
}
