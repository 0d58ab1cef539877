package observability

import (
	"context"
	"os"
	"testing"

	"github.com/healthnav/healthnav/internal/log"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("no-op shutdown returned %v", err)
	}
}

func TestSetupSetsServiceIdentity(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "")

	shutdown, err := Setup(context.Background(), Config{
		Endpoint:    "localhost:4318",
		ServiceName: "healthnav",
		Environment: "test",
	}, log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	if got := os.Getenv("OTEL_SERVICE_NAME"); got != "healthnav" {
		t.Errorf("OTEL_SERVICE_NAME = %q", got)
	}
	if got := os.Getenv("OTEL_RESOURCE_ATTRIBUTES"); got != "deployment.environment=test" {
		t.Errorf("OTEL_RESOURCE_ATTRIBUTES = %q", got)
	}
}
