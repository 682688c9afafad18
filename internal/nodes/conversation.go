package nodes

import (
	"context"
	"log/slog"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/guards"
	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/prompt"
	"github.com/formpilotai/formpilot/internal/session"
)

// maxHistoryMessages bounds how much conversation_history is replayed to
// the LLM per turn. Grounded on agent/nodes/conversation.py's
// MAX_HISTORY_MESSAGES.
const maxHistoryMessages = 30

// Conversation builds the system prompt, replays the last
// maxHistoryMessages history entries, and runs the guarded LLM call
// (§4.8). Grounded on agent/nodes/conversation.py's conversation_node.
func Conversation(ctx context.Context, client llm.Client, model string, fc *formctx.FormContext, form *formstate.State, st *session.State, log *slog.Logger) action.Action {
	missing := form.MissingRequiredFields()
	answers := form.VisibleAnswers()

	var nextField string
	var nextRequiresTool bool
	if len(missing) > 0 {
		nextField = missing[0].ID
		nextRequiresTool = missing[0].Type == formctx.FieldDropdown || missing[0].Type == formctx.FieldCheckbox
	}

	sysPrompt := prompt.BuildConversation(fc, answers, missing, nextRequiresTool)

	messages := make([]llm.Message, 0, len(st.ConversationHistory)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: sysPrompt})
	for _, m := range recentHistory(st.ConversationHistory, maxHistoryMessages) {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	missingIDs := make([]string, len(missing))
	for i, f := range missing {
		missingIDs[i] = f.ID
	}

	toolHint := ""
	if nextRequiresTool {
		toolHint = "get_" + nextField + "_options"
	}

	in := guards.Input{
		Answers:               answers,
		InitialExtractionDone: st.InitialExtractionDone,
		NextField:              nextField,
		MissingRequired:        missingIDs,
		ToolHint:               toolHint,
	}

	decoded, _ := guards.RunWithGuards(ctx, client, llm.Request{Model: model, Messages: messages}, in, log)
	return decoded
}

// recentHistory returns the last n entries of history, or all of it if
// shorter.
func recentHistory(history []session.Message, n int) []session.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
