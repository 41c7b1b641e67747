// Package spans extracts candidate instrumentation spans from free-form
// assistant text. Extraction is best-effort string scanning: ambiguous or
// missing context resolves to documented defaults and the package never
// returns an error.
package spans

import (
	"fmt"
	"regexp"
	"strings"
)

// Layer identifies where an instrumented operation runs.
type Layer string

const (
	// LayerFrontend marks client-side operations (browser, user actions)
	LayerFrontend Layer = "frontend"

	// LayerBackend marks server-side operations; the default when context
	// gives no hint
	LayerBackend Layer = "backend"
)

// Context window sizes around a span name. Tests pin the boundary behavior,
// so these are fixed rather than configurable.
const (
	layerWindow       = 100
	descriptionWindow = 300
	attributeWindow   = 400
)

// Candidate is a span discovered in assistant text. Attributes are collected
// first; PIIKeys is then derived from the attribute key set, so it is a
// subset of the attribute keys in practice.
type Candidate struct {
	// Name is the dotted span identifier, e.g. "checkout.validate_cart"
	Name string

	// Operation is the segment of Name before the first dot
	Operation string

	// Layer is the inferred execution layer
	Layer Layer

	// Description is extracted prose, or a templated default
	Description string

	// Attributes maps attribute name to a human-readable description
	Attributes map[string]string

	// PIIKeys lists attribute keys flagged as personally identifiable
	PIIKeys []string
}

var (
	// backtick-wrapped dotted lowercase identifier, at least one dot
	backtickNameRe = regexp.MustCompile("`([a-z_]+(?:\\.[a-z_]+)+)`")

	// "span ... : name" or "span ... `name" explicit mentions
	spanMentionRe = regexp.MustCompile("(?i)\\bspan\\b[^:`\n]*[:`]\\s*`?([a-z_]+(?:\\.[a-z_]+)+)")

	// description patterns, tried in order
	descAfterBacktickRe = regexp.MustCompile("`[^`]+`:\\s*([^.\n*]+)")
	descParenRe         = regexp.MustCompile(`\(([^)]+)\)`)
	descColonDashRe     = regexp.MustCompile("[:\\-]\\s*([^.\n*]+)")

	// attribute patterns
	attrLabelRe    = regexp.MustCompile("Attributes:\\s*((?:`[a-z_]+`[,\\s]*)+)")
	attrBulletRe   = regexp.MustCompile("-\\s*Attributes:\\s*`([a-z_, ]+)`")
	attrWrappedRe  = regexp.MustCompile("(?:`|\\*\\*)([a-z_]+)(?:`|\\*\\*)")
	attrBacktickRe = regexp.MustCompile("`([a-z_]+)`")
)

var frontendKeywords = []string{"frontend", "client", "browser", "user action", "click", "submit"}

var backendKeywords = []string{"backend", "server", "api", "database", "payment", "process"}

var backendOperations = map[string]bool{
	"db":      true,
	"http":    true,
	"payment": true,
	"auth":    true,
	"email":   true,
}

// attributeHints are substrings that qualify a wrapped token as an
// attribute name when no explicit Attributes label is present.
var attributeHints = []string{
	"id", "name", "price", "quantity", "value", "amount", "count",
	"method", "status", "type", "user", "error", "address", "street",
	"city", "state", "zip", "rate", "shipping", "order", "cart", "product",
}

// piiIndicators flag an attribute key as personally identifiable when its
// lowercased form contains any of them.
var piiIndicators = []string{
	"email", "phone", "address", "ssn", "card", "password", "token", "ip",
	"street", "city", "zip", "postal", "credit", "cvv", "billing",
	"shipping_address", "billing_address", "name", "firstname", "lastname",
}

// Extract scans assistant text for span candidates. It runs two passes:
// backtick-wrapped dotted identifiers first, then explicit "span ...: name"
// mentions. Output preserves first-occurrence order and drops later
// duplicates of an already-found name. Deduplication against an existing
// span collection is the caller's responsibility.
func Extract(text string) []Candidate {
	var found []Candidate
	seen := make(map[string]bool)

	for _, match := range backtickNameRe.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		found = append(found, buildCandidate(text, name, true))
	}

	// The explicit-mention pass keeps PIIKeys empty instead of re-running
	// detection; see the package tests for the pinned behavior.
	for _, match := range spanMentionRe.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		found = append(found, buildCandidate(text, name, false))
	}

	return found
}

func buildCandidate(text, name string, detectPII bool) Candidate {
	operation := name[:strings.Index(name, ".")]
	attributes := extractAttributes(text, name)

	description := extractDescription(text, name)
	if description == "" {
		description = fmt.Sprintf("Tracks %s operation", name)
	}

	piiKeys := []string{}
	if detectPII {
		piiKeys = detectPIIKeys(attributes)
	}

	return Candidate{
		Name:        name,
		Operation:   operation,
		Layer:       inferLayer(text, name, operation),
		Description: description,
		Attributes:  attributes,
		PIIKeys:     piiKeys,
	}
}

// inferLayer examines a window of layerWindow characters on either side of
// the span name's first occurrence.
func inferLayer(text, name, operation string) Layer {
	idx := strings.Index(text, name)
	if idx < 0 {
		return LayerBackend
	}

	start := idx - layerWindow
	if start < 0 {
		start = 0
	}
	end := idx + len(name) + layerWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	for _, keyword := range frontendKeywords {
		if strings.Contains(window, keyword) {
			return LayerFrontend
		}
	}

	for _, keyword := range backendKeywords {
		if strings.Contains(window, keyword) {
			return LayerBackend
		}
	}
	if strings.Contains(name, "validate") || strings.Contains(name, "process") || strings.Contains(name, "fetch") {
		return LayerBackend
	}

	// Every branch past the frontend scan resolves to backend; the checks
	// are kept separate so a third layer can slot in without reshuffling.
	if backendOperations[operation] {
		return LayerBackend
	}

	return LayerBackend
}

// extractDescription tries the description patterns in order over the
// descriptionWindow characters following the span name. Returns "" when
// nothing matches; the caller substitutes the templated default.
func extractDescription(text, name string) string {
	window := windowAfter(text, name, descriptionWindow)
	if window == "" {
		return ""
	}

	if m := descAfterBacktickRe.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := descParenRe.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := descColonDashRe.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}

// extractAttributes collects attribute names from the attributeWindow
// characters following the span name. The three sub-patterns are additive;
// an attribute found by an earlier pattern is not overwritten.
func extractAttributes(text, name string) map[string]string {
	attributes := make(map[string]string)
	window := windowAfter(text, name, attributeWindow)
	if window == "" {
		return attributes
	}

	add := func(attr string) {
		attr = strings.TrimSpace(attr)
		if attr == "" || attr == name {
			return
		}
		if _, ok := attributes[attr]; ok {
			return
		}
		attributes[attr] = fmt.Sprintf("Tracks %s", strings.ReplaceAll(attr, "_", " "))
	}

	if m := attrLabelRe.FindStringSubmatch(window); m != nil {
		for _, token := range attrBacktickRe.FindAllStringSubmatch(m[1], -1) {
			add(token[1])
		}
	}

	if m := attrBulletRe.FindStringSubmatch(window); m != nil {
		for _, token := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' }) {
			add(token)
		}
	}

	for _, m := range attrWrappedRe.FindAllStringSubmatch(window, -1) {
		token := m[1]
		if token == name {
			continue
		}
		for _, hint := range attributeHints {
			if strings.Contains(token, hint) {
				add(token)
				break
			}
		}
	}

	return attributes
}

// detectPIIKeys runs over the already-extracted attribute keys only, never
// over the surrounding text.
func detectPIIKeys(attributes map[string]string) []string {
	keys := []string{}
	for key := range attributes {
		lowered := strings.ToLower(key)
		for _, indicator := range piiIndicators {
			if strings.Contains(lowered, indicator) {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// windowAfter returns up to size characters immediately following the first
// occurrence of name in text.
func windowAfter(text, name string, size int) string {
	idx := strings.Index(text, name)
	if idx < 0 {
		return ""
	}
	start := idx + len(name)
	end := start + size
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
