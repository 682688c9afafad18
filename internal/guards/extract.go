// Package guards implements §4.8's JSON-extraction and output-guard
// pipeline: pulling a JSON object out of raw LLM text, then checking it
// against the six failure patterns models commonly produce, retrying with
// a corrective message up to three times before giving up.
//
// JSON extraction is grounded on agent/utils.py's extract_json (direct
// parse → fenced code block → brace-matched substring), re-expressed with
// a balanced-brace scanner (extractFirstBalancedJSON) instead of a naive
// first/last-brace slice, so braces nested inside string values are
// handled correctly.
package guards

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON object out of raw LLM output, trying direct
// parse, then a fenced ```json``` block, then a balanced-brace scan. It
// returns the raw JSON text (not a parsed value) so callers can inspect
// it cheaply with gjson before committing to a full unmarshal.
func ExtractJSON(content string) (raw string, ok bool) {
	content = strings.TrimSpace(content)

	if json.Valid([]byte(content)) {
		return content, true
	}

	if strings.Contains(content, "```") {
		for _, part := range strings.Split(content, "```") {
			candidate := strings.TrimSpace(part)
			candidate = strings.TrimPrefix(candidate, "json")
			candidate = strings.TrimSpace(candidate)
			if candidate != "" && json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}

	if extracted := extractFirstBalancedJSON(content, '{', '}'); extracted != "" {
		if json.Valid([]byte(extracted)) {
			return extracted, true
		}
	}

	return "", false
}

// extractFirstBalancedJSON scans for the first brace-balanced `{...}`
// substring, correctly skipping braces that appear inside string values.
// Adapted from internal/cognitive/structured_response.go.
func extractFirstBalancedJSON(input string, open, close byte) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				return strings.TrimSpace(input[start : i+1])
			}
		}
	}
	return ""
}
