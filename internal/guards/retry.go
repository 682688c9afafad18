package guards

import (
	"context"
	"log/slog"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/llm"
)

// MaxRetries is the corrective-retry budget per turn (§4.8), matching
// agent/utils.py's MAX_JSON_RETRIES.
const MaxRetries = 3

// Input collects the answer-state context the guards need to judge a
// model's output, independent of the conversation history being sent.
type Input struct {
	Answers               map[string]any
	InitialExtractionDone bool
	NextField              string
	MissingRequired        []string
	ToolHint               string
}

// fallbackMessage is what the node returns when every attempt, including
// retries, fails to produce a guard-clean action.
const fallbackMessage = "I had trouble understanding — please rephrase."

// RunWithGuards calls client.Complete, extracts and validates its output
// against the §4.8 guard table, and retries with a corrective message
// appended to the conversation on each violation. Returns (decoded, true)
// on success, or (MESSAGE fallback, false) once every attempt is spent.
func RunWithGuards(ctx context.Context, client llm.Client, req llm.Request, in Input, log *slog.Logger) (action.Action, bool) {
	messages := append([]llm.Message(nil), req.Messages...)

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		resp, err := client.Complete(ctx, llm.Request{Model: req.Model, Messages: messages})
		if err != nil {
			if log != nil {
				log.Warn("llm call failed", "attempt", attempt, "error", err)
			}
			continue
		}

		raw, extracted := ExtractJSON(resp.Content)
		if v := CheckUnparseable(extracted); v != nil {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: v.Message})
			continue
		}

		if v := CheckKnownAction(raw); v != nil {
			if converted, ok := ConvertUnknownToMessage(raw); ok {
				raw = converted
			} else {
				messages = append(messages, llm.Message{Role: llm.RoleUser, Content: v.Message})
				continue
			}
		}

		missingRemain := len(in.MissingRequired) > 0
		if v := CheckNoReaskAnswered(raw, in.Answers, in.NextField); v != nil {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: v.Message})
			continue
		}
		if v := CheckMessageWhileMissing(raw, missingRemain, in.NextField); v != nil {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: v.Message})
			continue
		}
		if v := CheckDropdownOptions(raw, in.ToolHint); v != nil {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: v.Message})
			continue
		}
		if v := CheckPrematureCompletion(raw, in.MissingRequired); v != nil {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: v.Message})
			continue
		}

		decoded, err := DecodeAction(raw)
		if err != nil {
			if log != nil {
				log.Warn("decode guarded action failed", "attempt", attempt, "error", err)
			}
			continue
		}
		return decoded, true
	}

	return action.Message(fallbackMessage), false
}
