package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := installSpanRecorder(t)

	ctx, span := StartServiceSpan(t.Context(), "transaction", "approve",
		WithAttribute(SpanAttrMethod, "transfer"),
		WithSpanKind(trace.SpanKindServer))
	SetAttributes(span, SpanAttrCount, 3, 42, "ignored", SpanAttrAmount, "1250.00")
	SetAttribute(span, SpanAttrResidentID, "r-1")
	AddEvent(span, "obligations_settled", "kind", "fine")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "transaction.approve", got.Name())
	assert.Equal(t, trace.SpanKindServer, got.SpanKind())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrMethod, "transfer"))
	assert.Contains(t, got.Attributes(), attribute.Int(SpanAttrCount, 3))
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrAmount, "1250.00"))
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrResidentID, "r-1"))
	require.NotEmpty(t, got.Events())
	assert.Equal(t, "obligations_settled", got.Events()[0].Name)
}

func TestTraceIDsWithoutSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(t.Context()))
	assert.Empty(t, GetSpanID(t.Context()))
}

func TestHelpersTolerateNilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttribute(nil, "k", "v")
		SetAttributes(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		AddEvent(nil, "e")
	})
}
