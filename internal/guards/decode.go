package guards

import (
	"encoding/json"
	"fmt"

	"github.com/formpilotai/formpilot/internal/action"
)

// wireAction mirrors the snake_case shape on the wire (see action.Action's
// MarshalJSON) so a guarded, validated raw JSON blob can be decoded back
// into the typed Action the rest of the orchestrator works with.
type wireAction struct {
	Action   action.Kind    `json:"action"`
	Text     string         `json:"text"`
	FieldID  string         `json:"field_id"`
	Label    string         `json:"label"`
	Message  string         `json:"message"`
	Options  []string       `json:"options"`
	ToolName string         `json:"tool_name"`
	ToolArgs map[string]any `json:"tool_args"`
	Data     map[string]any `json:"data"`
}

// DecodeAction parses a raw JSON object that has already passed every
// guard into the typed Action. Only called once the output is known-good,
// so a decode failure here indicates a genuine bug rather than a
// retryable model mistake.
func DecodeAction(raw string) (action.Action, error) {
	var w wireAction
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return action.Action{}, fmt.Errorf("decode guarded action: %w", err)
	}

	switch w.Action {
	case action.KindToolCall:
		return action.ToolCall(w.ToolName, w.ToolArgs, w.Message), nil
	case action.KindFormComplete:
		return action.FormComplete(w.Data, w.Message), nil
	case action.KindMessage:
		if w.Text == "" {
			w.Text = w.Message
		}
		return action.Message(w.Text), nil
	default:
		return action.Ask(w.Action, w.FieldID, w.Label, w.Options, w.Message), nil
	}
}
