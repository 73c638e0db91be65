package infra

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestSetupTracing_Disabled(t *testing.T) {
	cfg := DefaultConfig()

	shutdown, err := SetupTracing(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SetupTracing failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}

func TestSetupTracing_Enabled(t *testing.T) {
	previous := otel.GetTracerProvider()
	defer otel.SetTracerProvider(previous)

	cfg := DefaultConfig()
	cfg.Tracing.Endpoint = "127.0.0.1:4318"
	cfg.Tracing.Insecure = true

	shutdown, err := SetupTracing(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SetupTracing failed: %v", err)
	}

	_, span := otel.Tracer(TracerName).Start(context.Background(), "test")
	if !span.SpanContext().IsValid() {
		t.Error("Expected a recording span from the SDK provider")
	}
	span.End()

	// Nothing listens on the endpoint; shutdown must still return within the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
