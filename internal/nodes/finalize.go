package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/session"
)

// Finalize runs last on every non-greeting path: it resolves a pending
// text answer, tracks pending_field_id/pending_action_type/
// pending_tool_name off the new action, checks for a newly-completed step
// checkpoint, fills FORM_COMPLETE.data, and records the assistant turn in
// history. Returns the action actually emitted to the client. Grounded on
// agent/nodes/finalize.py's finalize_node plus §12.2's step-checkpoint
// addendum.
func Finalize(form *formstate.State, st *session.State, act action.Action) action.Action {
	resolvePendingText(form, st, act)

	if act.Kind != action.KindFormComplete {
		if checkpoint, ok := stepCheckpointMessage(form, st); ok {
			act = checkpoint
		}
	}
	updatePendingState(st, act)

	if act.Kind == action.KindFormComplete {
		act = action.FormComplete(form.AllAnswers(), act.Message)
	}

	encoded, _ := json.Marshal(act)
	st.ConversationHistory = session.AppendHistory(st.ConversationHistory, session.Message{
		Role:    session.RoleAssistant,
		Content: string(encoded),
	})

	return act
}

// resolvePendingText implements §4.9 step 1: a held text answer is
// rejected only if the new action re-asks the exact same field with
// ASK_TEXT; otherwise it is accepted and stored. The pending_text_* pair
// is cleared either way.
func resolvePendingText(form *formstate.State, st *session.State, act action.Action) {
	if st.PendingTextValue == "" && st.PendingTextFieldID == "" {
		return
	}

	reasked := act.Kind == action.KindAskText && act.FieldID == st.PendingTextFieldID
	if !reasked {
		_ = form.SetAnswer(st.PendingTextFieldID, st.PendingTextValue)
	}

	st.PendingTextValue = ""
	st.PendingTextFieldID = ""
}

// stepCheckpointMessage implements §12.2's finalize addendum: when the
// form declares steps and the current step's required fields are all now
// answered for the first time, a MESSAGE checkpoint summarizing them
// replaces whatever action would otherwise have been emitted, and
// awaiting_step_confirmation is set so the next turn routes through
// step_confirmation instead of the LLM.
func stepCheckpointMessage(form *formstate.State, st *session.State) (action.Action, bool) {
	if st.MaxStep == 0 || st.AwaitingStepConfirmation {
		return action.Action{}, false
	}

	fields := st.RequiredFieldsByStep[st.CurrentStep]
	if len(fields) == 0 {
		return action.Action{}, false
	}
	for _, completed := range st.CompletedSteps {
		if completed == st.CurrentStep {
			return action.Action{}, false
		}
	}

	answers := form.AllAnswers()
	for _, fieldID := range fields {
		if _, answered := answers[fieldID]; !answered {
			return action.Action{}, false
		}
	}

	summary := ""
	for i, fieldID := range fields {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%s: %v", fieldID, answers[fieldID])
	}

	st.AwaitingStepConfirmation = true
	return action.Message(fmt.Sprintf(
		"Step %d complete — %s. Please confirm to continue, or tell me what you'd like to update.",
		st.CurrentStep, summary,
	)), true
}

// updatePendingState implements §4.9 step 3.
func updatePendingState(st *session.State, act action.Action) {
	switch {
	case act.Kind.IsAsk():
		st.PendingFieldID = act.FieldID
		st.PendingActionType = string(act.Kind)
		st.PendingToolName = ""
	case act.Kind == action.KindToolCall:
		st.PendingToolName = act.ToolName
		st.PendingFieldID = ""
		st.PendingActionType = ""
	default: // MESSAGE, FORM_COMPLETE
		st.PendingFieldID = ""
		st.PendingActionType = ""
		st.PendingToolName = ""
	}
}
