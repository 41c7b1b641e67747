package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/demoforge/demoforge/pkg/recovery"
	"github.com/demoforge/demoforge/pkg/spans"
)

// ErrInvalidPlanShape is returned when a model reply parses as JSON but
// lacks the fields a plan needs. Distinct from recovery's malformed-response
// errors: here the JSON was fine and the content was not.
var ErrInvalidPlanShape = errors.New("plan response missing required fields")

type planResponse struct {
	AppName  string         `json:"appName"`
	Platform string         `json:"platform"`
	Spans    []spanResponse `json:"spans"`
}

type spanResponse struct {
	Name        string            `json:"name"`
	Layer       string            `json:"layer"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
	PIIKeys     []string          `json:"piiKeys"`
}

// ParsePlanFromResponse extracts and validates an instrumentation plan from
// a raw model reply. Repair and extraction failures surface as
// *recovery.MalformedResponseError; structurally valid JSON with missing
// fields surfaces as ErrInvalidPlanShape.
func ParsePlanFromResponse(raw string) (*Plan, error) {
	jsonText, err := recovery.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	if len(parsed.Spans) == 0 {
		return nil, fmt.Errorf("%w: no spans", ErrInvalidPlanShape)
	}

	result := NewPlan(parsed.AppName, Platform(parsed.Platform))
	for _, s := range parsed.Spans {
		if s.Name == "" || !strings.Contains(s.Name, ".") {
			return nil, fmt.Errorf("%w: span name %q is not a dotted identifier", ErrInvalidPlanShape, s.Name)
		}

		span := Span{
			Name:        s.Name,
			Operation:   s.Name[:strings.Index(s.Name, ".")],
			Layer:       spans.Layer(s.Layer),
			Description: s.Description,
			Attributes:  s.Attributes,
			PIIKeys:     s.PIIKeys,
		}
		if span.Layer != spans.LayerFrontend {
			span.Layer = spans.LayerBackend
		}
		if span.Description == "" {
			span.Description = fmt.Sprintf("Tracks %s operation", span.Name)
		}
		if span.Attributes == nil {
			span.Attributes = map[string]string{}
		}
		if span.PIIKeys == nil {
			span.PIIKeys = []string{}
		}

		result.Spans = append(result.Spans, span)
	}

	return result, nil
}
