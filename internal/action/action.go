// Package action implements the tagged variant of the nine UI action kinds
// FormPilot's orchestrator emits per turn (spec §3), their construction
// helpers, and their snake_case wire format (spec §6).
//
// Grounded on core/actions.py's build_message_action /
// build_completion_payload / build_tool_call_action, shaped as a Go struct
// with a discriminant field the way internal/model/contract/contract.go
// shapes its DTOs.
package action

import "encoding/json"

// Kind enumerates the nine action shapes.
type Kind string

const (
	KindMessage      Kind = "MESSAGE"
	KindAskText      Kind = "ASK_TEXT"
	KindAskDropdown  Kind = "ASK_DROPDOWN"
	KindAskCheckbox  Kind = "ASK_CHECKBOX"
	KindAskDate      Kind = "ASK_DATE"
	KindAskDatetime  Kind = "ASK_DATETIME"
	KindAskLocation  Kind = "ASK_LOCATION"
	KindToolCall     Kind = "TOOL_CALL"
	KindFormComplete Kind = "FORM_COMPLETE"
)

// ValidKinds is the closed set of action kinds a guard checks membership
// against (spec §4.8, "Unknown action kind" guard).
var ValidKinds = map[Kind]bool{
	KindMessage:      true,
	KindAskText:      true,
	KindAskDropdown:  true,
	KindAskCheckbox:  true,
	KindAskDate:      true,
	KindAskDatetime:  true,
	KindAskLocation:  true,
	KindToolCall:     true,
	KindFormComplete: true,
}

// IsAsk reports whether k is one of the six ASK_* kinds.
func (k Kind) IsAsk() bool {
	switch k {
	case KindAskText, KindAskDropdown, KindAskCheckbox, KindAskDate, KindAskDatetime, KindAskLocation:
		return true
	default:
		return false
	}
}

// Action is the tagged variant. Only the fields relevant to Kind are
// populated; the others are left at their zero value and omitted from the
// wire format.
type Action struct {
	Kind Kind `json:"action"`

	// MESSAGE
	Text string `json:"text,omitempty"`

	// ASK_* and TOOL_CALL shared
	FieldID string `json:"field_id,omitempty"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message,omitempty"`

	// ASK_DROPDOWN / ASK_CHECKBOX
	Options []string `json:"options,omitempty"`

	// TOOL_CALL
	ToolName string         `json:"tool_name,omitempty"`
	ToolArgs map[string]any `json:"tool_args,omitempty"`

	// FORM_COMPLETE
	Data map[string]any `json:"data,omitempty"`
}

// Message builds a MESSAGE action.
func Message(text string) Action {
	return Action{Kind: KindMessage, Text: text}
}

// Ask builds one of the six ASK_* actions.
func Ask(kind Kind, fieldID, label string, options []string, message string) Action {
	return Action{
		Kind:    kind,
		FieldID: fieldID,
		Label:   label,
		Options: options,
		Message: message,
	}
}

// AskText builds an ASK_TEXT action.
func AskText(fieldID, label, message string) Action {
	return Ask(KindAskText, fieldID, label, nil, message)
}

// AskDate builds an ASK_DATE action.
func AskDate(fieldID, label, message string) Action {
	return Ask(KindAskDate, fieldID, label, nil, message)
}

// AskDatetime builds an ASK_DATETIME action.
func AskDatetime(fieldID, label, message string) Action {
	return Ask(KindAskDatetime, fieldID, label, nil, message)
}

// AskLocation builds an ASK_LOCATION action.
func AskLocation(fieldID, label, message string) Action {
	return Ask(KindAskLocation, fieldID, label, nil, message)
}

// AskDropdown builds an ASK_DROPDOWN action.
func AskDropdown(fieldID, label string, options []string, message string) Action {
	return Ask(KindAskDropdown, fieldID, label, options, message)
}

// AskCheckbox builds an ASK_CHECKBOX action.
func AskCheckbox(fieldID, label string, options []string, message string) Action {
	return Ask(KindAskCheckbox, fieldID, label, options, message)
}

// ToolCall builds a TOOL_CALL action. toolArgs must never be nil on the
// wire (spec §6: "must be present"), so a nil map is replaced with empty.
func ToolCall(toolName string, toolArgs map[string]any, message string) Action {
	if toolArgs == nil {
		toolArgs = map[string]any{}
	}
	return Action{Kind: KindToolCall, ToolName: toolName, ToolArgs: toolArgs, Message: message}
}

// FormComplete builds a FORM_COMPLETE action. data is copied, never
// referenced, per spec §4.9 step 4.
func FormComplete(data map[string]any, message string) Action {
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return Action{Kind: KindFormComplete, Data: copied, Message: message}
}

// MarshalJSON renders the action in the snake_case wire format of §6,
// including tool_args as an empty object (never omitted) for TOOL_CALL.
func (a Action) MarshalJSON() ([]byte, error) {
	type wire struct {
		Action   Kind           `json:"action"`
		Text     string         `json:"text,omitempty"`
		FieldID  string         `json:"field_id,omitempty"`
		Label    string         `json:"label,omitempty"`
		Message  string         `json:"message,omitempty"`
		Options  []string       `json:"options,omitempty"`
		ToolName string         `json:"tool_name,omitempty"`
		ToolArgs *map[string]any `json:"tool_args,omitempty"`
		Data     map[string]any `json:"data,omitempty"`
	}

	w := wire{
		Action:   a.Kind,
		Text:     a.Text,
		FieldID:  a.FieldID,
		Label:    a.Label,
		Message:  a.Message,
		Options:  a.Options,
		ToolName: a.ToolName,
		Data:     a.Data,
	}
	if a.Kind == KindToolCall || len(a.ToolArgs) > 0 {
		args := a.ToolArgs
		if args == nil {
			args = map[string]any{}
		}
		w.ToolArgs = &args
	}
	return json.Marshal(w)
}
