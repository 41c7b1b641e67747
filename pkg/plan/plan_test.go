package plan

import (
	"strings"
	"testing"
	"time"

	"github.com/demoforge/demoforge/pkg/spans"
)

func TestNewPlan(t *testing.T) {
	p := NewPlan("coffee-shop", PlatformWeb)

	if p.ID == "" {
		t.Errorf("Expected ID to be non-empty")
	}
	if p.AppName != "coffee-shop" {
		t.Errorf("Expected app name 'coffee-shop', got '%s'", p.AppName)
	}
	if p.Platform != PlatformWeb {
		t.Errorf("Expected platform %s, got %s", PlatformWeb, p.Platform)
	}
	if len(p.Spans) != 0 {
		t.Errorf("Expected empty spans, got %d", len(p.Spans))
	}
	if time.Since(p.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt time is too old: %v", p.CreatedAt)
	}
}

func TestMergeDeduplicatesByName(t *testing.T) {
	p := NewPlan("coffee-shop", PlatformWeb)

	first := []spans.Candidate{
		{Name: "checkout.validate_cart", Operation: "checkout", Layer: spans.LayerBackend},
		{Name: "cart.add_item", Operation: "cart", Layer: spans.LayerFrontend},
	}
	if added := p.Merge(first); added != 2 {
		t.Fatalf("Expected 2 added, got %d", added)
	}

	second := []spans.Candidate{
		{Name: "checkout.validate_cart", Operation: "checkout", Layer: spans.LayerBackend},
		{Name: "payment.process", Operation: "payment", Layer: spans.LayerBackend},
	}
	if added := p.Merge(second); added != 1 {
		t.Fatalf("Expected 1 added, got %d", added)
	}

	if len(p.Spans) != 3 {
		t.Errorf("Expected 3 spans, got %d", len(p.Spans))
	}
	if !p.HasSpan("payment.process") {
		t.Errorf("Expected plan to contain payment.process")
	}
}

func TestParsePlanFromResponse(t *testing.T) {
	response := `Here is your instrumentation plan:
{
  "appName": "coffee-shop",
  "platform": "web",
  "spans": [
    {
      "name": "checkout.validate_cart",
      "layer": "backend",
      "description": "Validates the cart",
      "attributes": {"cart_value": "Tracks cart value"},
      "piiKeys": []
    },
    {
      "name": "form.submit_order",
      "layer": "frontend"
    }
  ]
}
Let me know if you want changes.`

	p, err := ParsePlanFromResponse(response)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if p.AppName != "coffee-shop" {
		t.Errorf("Expected app name 'coffee-shop', got '%s'", p.AppName)
	}
	if len(p.Spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(p.Spans))
	}

	first := p.Spans[0]
	if first.Operation != "checkout" {
		t.Errorf("Expected operation 'checkout', got '%s'", first.Operation)
	}
	if first.Layer != spans.LayerBackend {
		t.Errorf("Expected backend layer, got %s", first.Layer)
	}

	second := p.Spans[1]
	if second.Layer != spans.LayerFrontend {
		t.Errorf("Expected frontend layer, got %s", second.Layer)
	}
	if second.Description == "" {
		t.Errorf("Expected defaulted description, got empty")
	}
	if second.Attributes == nil || second.PIIKeys == nil {
		t.Errorf("Expected defaulted attributes and piiKeys")
	}
}

func TestParsePlanFromResponse_NoSpans(t *testing.T) {
	_, err := ParsePlanFromResponse(`{"appName": "x", "platform": "web", "spans": []}`)
	if err == nil {
		t.Fatalf("Expected error for empty spans")
	}
	if !strings.Contains(err.Error(), "missing required fields") {
		t.Errorf("Expected shape error, got: %v", err)
	}
}

func TestParsePlanFromResponse_BadSpanName(t *testing.T) {
	_, err := ParsePlanFromResponse(`{"appName": "x", "platform": "web", "spans": [{"name": "nodots"}]}`)
	if err == nil {
		t.Fatalf("Expected error for undotted span name")
	}
}

func TestParsePlanFromResponse_NotJSON(t *testing.T) {
	_, err := ParsePlanFromResponse("This is not valid JSON")
	if err == nil {
		t.Fatalf("Expected error for invalid JSON, got nil")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	p := NewPlan("coffee-shop", PlatformWeb)

	if err := store.Save(p); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := store.Get(p.ID)
	if err != nil {
		t.Fatalf("Expected plan to exist: %v", err)
	}
	if got.AppName != "coffee-shop" {
		t.Errorf("Expected app name 'coffee-shop', got '%s'", got.AppName)
	}

	plans, err := store.List()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(plans) != 1 {
		t.Errorf("Expected 1 plan in store")
	}

	if err := store.Delete(p.ID); err != nil {
		t.Errorf("Expected delete to succeed: %v", err)
	}
	if err := store.Delete(p.ID); err == nil {
		t.Errorf("Expected second delete to fail")
	}
	if _, err := store.Get(p.ID); err == nil {
		t.Errorf("Expected get after delete to fail")
	}
}

// Both implementations satisfy the Store contract the CLI selects between.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
