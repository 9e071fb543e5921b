package telemetry

import (
	"context"
	"testing"

	"aws-cost/internal/config"
)

func TestInitTracerNone(t *testing.T) {
	shutdown, err := InitTracer("aws-cost-test", "test", config.TelemetryConfig{Exporter: "none"})
	if err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	defer shutdown()

	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}

func TestInitTracerUnknownExporter(t *testing.T) {
	if _, err := InitTracer("aws-cost-test", "test", config.TelemetryConfig{Exporter: "zipkin"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
