// Package recovery repairs and extracts JSON from raw model responses.
// Models that are asked for pure JSON still wrap it in prose or markdown,
// and some emit template-literal style backtick strings where JSON
// double-quoted strings belong. ExtractJSON undoes both before the caller
// hands the result to encoding/json.
package recovery

import (
	"fmt"
	"regexp"
	"strings"
)

// MalformedResponseError reports a model response that cannot yield a
// parseable JSON substring. It is always recoverable: callers typically log
// the truncated raw text and re-prompt the model.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

var (
	// ErrNoJSON is returned when the response contains no JSON object or
	// array start token at all.
	ErrNoJSON = &MalformedResponseError{Reason: "no JSON object or array found"}

	// ErrIncompleteJSON is returned when nesting never balances before the
	// input ends, which usually means the model hit a token limit.
	ErrIncompleteJSON = &MalformedResponseError{Reason: "incomplete JSON structure"}
)

var (
	fenceOpenRe = regexp.MustCompile("^```(?:json)?[ \t]*\r?\n?")

	// ": `...`" with a possibly multi-line interior
	backtickValueRe = regexp.MustCompile("(?s):\\s*`([^`]*)`")
)

// ExtractJSON locates the balanced JSON substring of a raw model response.
// It strips markdown fences, rewrites backtick-delimited string values to
// proper JSON strings, then scans from the first '{' or '[' until nesting
// balances. The returned substring parses with a standard JSON parser;
// validating the parsed shape is the caller's job.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = fenceOpenRe.ReplaceAllString(text, "")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Repair before structural scanning: rewriting backtick values changes
	// where string boundaries are.
	text = repairBacktickValues(text)

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}

	end, ok := scanBalanced(text, start)
	if !ok {
		return "", ErrIncompleteJSON
	}

	return text[start : end+1], nil
}

// repairBacktickValues rewrites every ": `...`" occurrence to a JSON
// double-quoted string with the interior escaped.
func repairBacktickValues(text string) string {
	return backtickValueRe.ReplaceAllStringFunc(text, func(match string) string {
		inner := backtickValueRe.FindStringSubmatch(match)[1]
		return `: "` + escapeJSONString(inner) + `"`
	})
}

// escapeJSONString escapes a raw string for embedding between JSON double
// quotes. Control characters outside the named escapes become \uXXXX.
func escapeJSONString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
				b.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// scanBalanced walks the text from start, tracking string state and a
// combined brace/bracket counter, and returns the index where the counter
// first returns to zero. Regex cannot balance nested brackets when strings
// may contain them, so this is an explicit state machine.
func scanBalanced(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escapeNext := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escapeNext {
			escapeNext = false
			continue
		}

		if inString {
			switch c {
			case '\\':
				escapeNext = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
