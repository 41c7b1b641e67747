// Package plan holds the persisted instrumentation plan for a scaffolded
// demo application: the spans and attributes the generated app should emit.
package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/demoforge/demoforge/pkg/spans"
)

// Platform identifies the kind of demo application being scaffolded
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
	PlatformPython Platform = "python"
)

// Span is a persisted instrumentation record
type Span struct {
	Name        string            `json:"name"`
	Operation   string            `json:"operation"`
	Layer       spans.Layer       `json:"layer"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
	PIIKeys     []string          `json:"piiKeys"`
}

// Plan is the instrumentation plan for one demo application
type Plan struct {
	ID        string    `json:"id"`
	AppName   string    `json:"appName"`
	Platform  Platform  `json:"platform"`
	Spans     []Span    `json:"spans"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPlan creates an empty plan for the given application
func NewPlan(appName string, platform Platform) *Plan {
	now := time.Now()
	return &Plan{
		ID:        uuid.New().String(),
		AppName:   appName,
		Platform:  platform,
		Spans:     []Span{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SpanFromCandidate converts an extracted candidate into a persisted span
func SpanFromCandidate(candidate spans.Candidate) Span {
	return Span{
		Name:        candidate.Name,
		Operation:   candidate.Operation,
		Layer:       candidate.Layer,
		Description: candidate.Description,
		Attributes:  candidate.Attributes,
		PIIKeys:     candidate.PIIKeys,
	}
}

// HasSpan reports whether the plan already contains a span with the name
func (p *Plan) HasSpan(name string) bool {
	for _, span := range p.Spans {
		if span.Name == name {
			return true
		}
	}
	return false
}

// Merge adds the candidates the plan does not already contain, deduplicating
// by name, and returns how many were added. The extractor only deduplicates
// within one call; across calls the plan owns it.
func (p *Plan) Merge(candidates []spans.Candidate) int {
	added := 0
	for _, candidate := range candidates {
		if p.HasSpan(candidate.Name) {
			continue
		}
		p.Spans = append(p.Spans, SpanFromCandidate(candidate))
		added++
	}
	if added > 0 {
		p.UpdatedAt = time.Now()
	}
	return added
}
