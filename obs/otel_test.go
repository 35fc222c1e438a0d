package obs

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestExporterOptions(t *testing.T) {
	tests := []struct {
		endpoint string
		want     int
	}{
		{"localhost:4318", 2},
		{"http://collector:4318/", 2},
		{"https://otel.example.com", 1},
	}
	for _, tt := range tests {
		if got := len(exporterOptions(tt.endpoint)); got != tt.want {
			t.Errorf("exporterOptions(%q) returned %d options, want %d", tt.endpoint, got, tt.want)
		}
	}
}

func TestInitTracerWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitTracer(ctx, "league-buysell-test", "")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	_, span := otel.Tracer("test").Start(ctx, "op")
	if !span.SpanContext().IsValid() {
		t.Fatal("expected a recording tracer provider")
	}
	span.End()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
