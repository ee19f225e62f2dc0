package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/blogicum/blogicum/pkg/config"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(&config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Init() returned nil shutdown func")
	}
	shutdown()
}

func TestStartSpanWithoutInit(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	defer span.End()

	if ctx == nil {
		t.Fatal("StartSpan() returned nil context")
	}
	// Recording on a no-op span must not panic
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
}

func TestMeterWithoutInit(t *testing.T) {
	counter, err := Meter().Int64Counter("test.counter")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 1)
}
