package llmclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON parses a JSON object out of a raw LLM reply. It first tries
// the trimmed reply directly, then falls back to scanning for the first
// '{' and balancing braces to find the object that starts there (up to its
// matching '}'), per spec.md §4.1/§8. Returns an error if no balanced object
// parses — callers must fail loudly rather than silently skip the result.
func ExtractJSON(reply string, out any) error {
	trimmed := strings.TrimSpace(reply)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}
	candidate, err := findCandidate(reply)
	if err != nil {
		return err
	}
	return unmarshalCandidate(candidate, out)
}

// findCandidate returns the trimmed reply directly if it reads as a whole
// JSON value, otherwise the balanced-brace substring that starts at its
// first '{'.
func findCandidate(reply string) (string, error) {
	trimmed := strings.TrimSpace(reply)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	candidate, err := balancedObject(trimmed)
	if err != nil {
		return "", fmt.Errorf("no balanced JSON object found in reply: %w", err)
	}
	return candidate, nil
}

func unmarshalCandidate(candidate string, out any) error {
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return fmt.Errorf("parsing extracted JSON candidate: %w", err)
	}
	return nil
}

// balancedObject scans s for the first '{' and returns the substring up to
// its matching '}', honoring string literals and escapes so braces inside
// quoted text don't throw off the depth count.
func balancedObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no '{' found")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced braces")
}
