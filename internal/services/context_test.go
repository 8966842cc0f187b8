package services_test

import (
	"context"
	"testing"

	"m4dsync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithDriver(ctx, "batch")
	ctx = services.WithSiteID(ctx, "200010")
	ctx = services.WithPlayerID(ctx, 42)

	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if driver, ok := services.DriverFromContext(ctx); !ok || driver != "batch" {
		t.Fatalf("unexpected driver: %v %v", driver, ok)
	}
	if site, ok := services.SiteIDFromContext(ctx); !ok || site != "200010" {
		t.Fatalf("unexpected site id: %v %v", site, ok)
	}
	if id, ok := services.PlayerIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected player id: %v %v", id, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithDriver(ctx, "")
	ctx = services.WithSiteID(ctx, "")
	if _, ok := services.DriverFromContext(ctx); ok {
		t.Fatal("expected no driver value")
	}
	if _, ok := services.SiteIDFromContext(ctx); ok {
		t.Fatal("expected no site value")
	}
	if _, ok := services.PlayerIDFromContext(ctx); ok {
		t.Fatal("expected no player value")
	}
}
