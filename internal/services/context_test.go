package services_test

import (
	"context"
	"testing"

	"ytmeta/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := services.WithShow(services.WithRunID(context.Background(), "run-1"), "Some Channel")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if show, ok := services.ShowFromContext(ctx); !ok || show != "Some Channel" {
		t.Fatalf("unexpected show: %v %v", show, ok)
	}
}

func TestBlankValuesAreNotStored(t *testing.T) {
	ctx := services.WithRunID(services.WithShow(context.Background(), ""), "")
	if _, ok := services.ShowFromContext(ctx); ok {
		t.Fatal("expected no show value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
}
