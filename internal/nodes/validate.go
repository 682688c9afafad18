package nodes

import (
	"fmt"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/session"
)

// ValidateResult reports what the validate_input node decided, for the
// driver and the conversation node that follows it.
type ValidateResult struct {
	// RetryMessage is non-empty when format validation rejected the
	// answer; it must be appended to conversation history as a system
	// message before the conversation node runs.
	RetryMessage string

	// Directive is non-empty when a text answer is held pending the
	// LLM's own contextual judgment; it must be appended to conversation
	// history as a system message telling the model a judgment call is
	// expected.
	Directive string
}

// ValidateInput runs when a prior turn asked a pending field and the
// current user_message is the answer. Dispatches by pending_action_type:
// date/datetime get deterministic format validation; text is held for the
// LLM's contextual judgment in finalize; dropdown/checkbox/location are
// accepted immediately since their UI already constrains the shape.
// Grounded on agent/nodes/validation.py's validate_input_node.
func ValidateInput(form *formstate.State, st *session.State, userMessage string) ValidateResult {
	fieldID := st.PendingFieldID
	actionType := st.PendingActionType

	switch action.Kind(actionType) {
	case action.KindAskDate, action.KindAskDatetime:
		normalized, err := formstate.ParseLenientTimestamp(userMessage)
		if err != nil {
			return ValidateResult{
				RetryMessage: fmt.Sprintf(
					"The previous answer for %s could not be parsed as a date; ask again briefly.",
					fieldID,
				),
			}
		}
		layout := "2006-01-02"
		if action.Kind(actionType) == action.KindAskDatetime {
			layout = "2006-01-02T15:04:05"
		}
		if err := form.SetAnswer(fieldID, normalized.Format(layout)); err == nil {
			st.PendingFieldID = ""
			st.PendingActionType = ""
		}
		return ValidateResult{}

	case action.KindAskText:
		st.PendingTextValue = userMessage
		st.PendingTextFieldID = fieldID
		return ValidateResult{
			Directive: fmt.Sprintf(
				"VALIDATE this answer for %s: %s. If irrelevant or gibberish, re-ask the same field; otherwise move to the next field.",
				fieldID, userMessage,
			),
		}

	default: // ASK_DROPDOWN, ASK_CHECKBOX, ASK_LOCATION: immediate acceptance
		if err := form.SetAnswer(fieldID, parseImmediateAnswer(actionType, userMessage)); err == nil {
			st.PendingFieldID = ""
			st.PendingActionType = ""
		}
		return ValidateResult{}
	}
}

// parseImmediateAnswer shapes the raw user message into the value form the
// field's validator expects. Dropdown is a bare string; checkbox/location
// are expected to arrive from the client already in their structured
// shape via tool-informed UI, so a plain-text fallback is only a
// best-effort single-value wrap.
func parseImmediateAnswer(actionType, userMessage string) any {
	switch action.Kind(actionType) {
	case action.KindAskCheckbox:
		return []any{userMessage}
	default:
		return userMessage
	}
}
