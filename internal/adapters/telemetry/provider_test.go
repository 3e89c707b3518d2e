package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/launchpad/internal/adapters/telemetry"
	"go.trai.ch/launchpad/internal/core/ports"
	"go.trai.ch/launchpad/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer("test-tracer", sr)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	ctx, root := tracer.Start(context.Background(), "build")
	tracer.EmitPlan(ctx, []string{"main", "renderer"})

	_, child := tracer.Start(ctx, "renderer")
	child.SetAttribute("stale", true)
	child.SetAttribute("exit_code", 2)
	child.SetAttribute("reason", errors.New("boom"))
	n, err := child.Write([]byte("compiling\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	child.RecordError(errors.New("exit status 2"))
	child.End()
	root.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "renderer", spans[0].Name())
	assert.Equal(t, "exit status 2", spans[0].Status().Description)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())

	var attrs []string
	for _, kv := range spans[0].Attributes() {
		attrs = append(attrs, string(kv.Key)+"="+kv.Value.Emit())
	}
	assert.Contains(t, attrs, "stale=true")
	assert.Contains(t, attrs, "exit_code=2")
	assert.Contains(t, attrs, "reason=boom")

	require.NotEmpty(t, spans[1].Events())
	assert.Equal(t, "plan_emitted", spans[1].Events()[0].Name)
}

func TestOTelTracer_WithRenderer(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRenderer := mocks.NewMockRenderer(ctrl)

	tracer := telemetry.NewOTelTracer("test-tracer").WithRenderer(mockRenderer)

	gomock.InOrder(
		mockRenderer.EXPECT().OnPlanEmit([]string{"main"}),
		mockRenderer.EXPECT().OnTaskStart(gomock.Any(), "", "main", gomock.Any()),
		mockRenderer.EXPECT().OnTaskLog(gomock.Any(), []byte("tsc\n")),
		mockRenderer.EXPECT().OnTaskComplete(gomock.Any(), gomock.Any(), nil),
		mockRenderer.EXPECT().Stop().Return(nil),
	)

	ctx := context.Background()
	tracer.EmitPlan(ctx, []string{"main"})

	_, span := tracer.Start(ctx, "main")
	_, _ = span.Write([]byte("tsc\n"))
	span.End()

	_, quiet := tracer.Start(ctx, "inspect", ports.WithQuiet())
	_, _ = quiet.Write([]byte("not rendered\n"))
	quiet.End()

	require.NoError(t, tracer.Shutdown(ctx))
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx := context.Background()
	_, span := tracer.Start(ctx, "test-span")
	require.NotNil(t, span)

	tracer.EmitPlan(ctx, []string{"main"})
	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("test log"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	span.End()
}
