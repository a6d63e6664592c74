package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("authorization=Bearer x, x-team = infra ,broken,=empty")
	assert.Equal(t, map[string]string{
		"authorization": "Bearer x",
		"x-team":        "infra",
	}, got)
	assert.Empty(t, parseHeaders(""))
}

func TestStartSpanRecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "tfe.request", attribute.String("http.method", "GET"))
	EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tfe.request", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("http.method", "GET"))
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestInitTracingFromEnvNone(t *testing.T) {
	t.Setenv("HCPCTL_OTEL_EXPORTER", "none")
	shutdown, err := InitTracingFromEnv("hcpctl", "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
