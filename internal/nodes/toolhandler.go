package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/formpilotai/formpilot/internal/session"
)

// optionsHintFields is the priority order scanned for a human-readable
// label inside a tool result's nested payload. Grounded on
// agent/utils.py's extract_options_hint.
var optionsHintFields = []string{"name.english", "name", "value.english", "value", "label", "title", "text", "description"}

// ToolHandler consumes the tool_results the client supplied after a prior
// TOOL_CALL, appends one directive system message per result describing
// what the LLM should present, and clears pending_tool_name when it
// matches. Tool results never mutate answers directly. Grounded on
// agent/nodes/tool_handler.py's tool_handler_node.
func ToolHandler(st *session.State, toolResults []session.ToolResult) []session.Message {
	messages := make([]session.Message, 0, len(toolResults))

	for _, result := range toolResults {
		hint := extractOptionsHint(result.Result)
		resultJSON, _ := json.Marshal(result.Result)

		content := fmt.Sprintf(
			"Tool %s returned: %s. Usable options: %s. Present these to the user via ASK_DROPDOWN.",
			result.ToolName, string(resultJSON), hint,
		)
		messages = append(messages, session.Message{Role: session.RoleSystem, Content: content})

		if st.PendingToolName == result.ToolName {
			st.PendingToolName = ""
		}
	}

	return messages
}

// extractOptionsHint builds a JSON array of strings, one per list item in
// result, using the first populated field in optionsHintFields. Returns
// "[]" if no list could be assembled.
func extractOptionsHint(result any) string {
	list, ok := result.([]any)
	if !ok {
		if wrapper, ok := result.(map[string]any); ok {
			for _, val := range wrapper {
				if inner, ok := val.([]any); ok {
					list = inner
					break
				}
			}
		}
	}
	if len(list) == 0 {
		out, _ := json.Marshal([]string{})
		return string(out)
	}

	hints := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := labelFor(item); ok {
			hints = append(hints, s)
		}
	}
	out, _ := json.Marshal(hints)
	return string(out)
}

// labelFor scans item for the first populated field named in
// optionsHintFields, supporting one level of dotted nesting
// ("name.english").
func labelFor(item any) (string, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		if s, ok := item.(string); ok {
			return s, true
		}
		return "", false
	}

	for _, field := range optionsHintFields {
		if s, ok := lookupDotted(m, field); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func lookupDotted(m map[string]any, path string) (string, bool) {
	var dot int
	for dot = 0; dot < len(path); dot++ {
		if path[dot] == '.' {
			break
		}
	}
	if dot == len(path) {
		v, ok := m[path]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}

	outer, ok := m[path[:dot]].(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := outer[path[dot+1:]]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
