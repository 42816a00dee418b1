package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attributeMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, *OTelEmitter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, NewOTelEmitter(otel.Tracer("archivist-test"))
}

func TestOTelEmitterCreatesSpanPerEvent(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(testEvent("node_start"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "node_start", spans[0].Name)

	attrs := attributeMap(spans[0].Attributes)
	assert.Equal(t, "backup-acme-001", attrs["archivist.run_id"])
	assert.Equal(t, int64(1), attrs["archivist.step"])
	assert.Equal(t, "Backup.create_intermediate_directory", attrs["archivist.node_id"])
	assert.Equal(t, int64(12), attrs["archivist.meta.duration_ms"])
}

func TestOTelEmitterMarksNodeErrorSpans(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	event := testEvent("node_error")
	event.Meta["message"] = "[acme/db-host] unrecognized exception: disk full"
	emitter.Emit(event)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Status.Description, "unrecognized exception")
}

func TestOTelEmitterBatchEmitsInOrder(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	require.NoError(t, emitter.EmitBatch(context.Background(), []Event{
		testEvent("node_start"), testEvent("node_complete"),
	}))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "node_start", spans[0].Name)
	assert.Equal(t, "node_complete", spans[1].Name)
}
