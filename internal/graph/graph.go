// Package graph drives one conversation turn: it decides which of the
// node functions in internal/nodes to run, in which order, and folds
// their results into the session's accumulated state.
//
// LangGraph's StateGraph plus conditional-edges model (agent/graph.py)
// is re-expressed here as a plain Go switch/driver function — Go has no
// graph-execution runtime to lean on, and a turn's control flow is small
// enough that an explicit sequence of if/switch statements is the
// idiomatic fit (§4.1's "small state machine over six nodes plus a
// routing function").
package graph

import (
	"context"
	"log/slog"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/nodes"
	"github.com/formpilotai/formpilot/internal/session"
)

// Input is the ephemeral, per-turn request: the user's message and any
// tool_results the client is reporting back from a prior TOOL_CALL.
type Input struct {
	UserMessage string
	ToolResults []session.ToolResult
}

// Run executes one turn against sess (form context + accumulated form and
// conversation state), returning the action to send back to the client.
// Grounded on agent/graph.py's route_input and node wiring.
func Run(ctx context.Context, client llm.Client, model string, fc *formctx.FormContext, form *formstate.State, st *session.State, in Input, log *slog.Logger) action.Action {
	recordUserMessage(st, in.UserMessage)

	switch {
	case len(st.ConversationHistory) == 0 && in.UserMessage == "" && len(in.ToolResults) == 0:
		act, _ := nodes.Greeting(fc)
		return act

	case len(in.ToolResults) > 0:
		directives := nodes.ToolHandler(st, in.ToolResults)
		st.ConversationHistory = session.AppendHistory(st.ConversationHistory, directives...)
		return runConversationThenFinalize(ctx, client, model, fc, form, st, log)

	case st.AwaitingStepConfirmation && in.UserMessage != "":
		result := nodes.StepConfirmation(st, in.UserMessage)
		st.ConversationHistory = session.AppendHistory(st.ConversationHistory, result.HistoryEntries...)
		if result.Action != nil {
			// skip_conversation_turn: the node already produced the
			// final action and updated history/pending state itself.
			return *result.Action
		}
		return runConversationThenFinalize(ctx, client, model, fc, form, st, log)

	case st.PendingFieldID != "" && in.UserMessage != "":
		result := nodes.ValidateInput(form, st, in.UserMessage)
		if result.RetryMessage != "" {
			st.ConversationHistory = session.AppendHistory(st.ConversationHistory, session.Message{
				Role:    session.RoleSystem,
				Content: result.RetryMessage,
			})
		}
		if result.Directive != "" {
			st.ConversationHistory = session.AppendHistory(st.ConversationHistory, session.Message{
				Role:    session.RoleSystem,
				Content: result.Directive,
			})
		}
		return runConversationThenFinalize(ctx, client, model, fc, form, st, log)

	case !st.InitialExtractionDone && in.UserMessage != "":
		result := nodes.Extraction(ctx, client, model, fc, form, st, in.UserMessage, log)
		if result.DirectAction != nil {
			return nodes.Finalize(form, st, *result.DirectAction)
		}
		if form.IsComplete() {
			return nodes.Finalize(form, st, action.FormComplete(nil, "All required fields are filled — thanks!"))
		}
		return runConversationThenFinalize(ctx, client, model, fc, form, st, log)

	default:
		return runConversationThenFinalize(ctx, client, model, fc, form, st, log)
	}
}

// runConversationThenFinalize is the common tail shared by every
// non-greeting, non-skip-turn path: call the conversation node, then fold
// its result through finalize. Grounded on route_after_conversation — in
// this Go port the conversation node itself never leaves
// parsed_llm_response unset (RunWithGuards always returns a usable
// fallback MESSAGE), so finalize always runs.
func runConversationThenFinalize(ctx context.Context, client llm.Client, model string, fc *formctx.FormContext, form *formstate.State, st *session.State, log *slog.Logger) action.Action {
	act := nodes.Conversation(ctx, client, model, fc, form, st, log)
	return nodes.Finalize(form, st, act)
}

// recordUserMessage appends the turn's user_message to history exactly
// once per turn, mirroring user_message_added's role in the original.
func recordUserMessage(st *session.State, userMessage string) {
	if userMessage == "" {
		return
	}
	st.ConversationHistory = session.AppendHistory(st.ConversationHistory, session.Message{
		Role:    session.RoleUser,
		Content: userMessage,
	})
}
