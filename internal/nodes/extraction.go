package nodes

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/formstate"
	"github.com/formpilotai/formpilot/internal/guards"
	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/prompt"
	"github.com/formpilotai/formpilot/internal/session"
)

// multiAnswerResponse is the common-case shape the extraction prompt asks
// for: {intent: "multi_answer", answers: {...}, message: "..."}.
type multiAnswerResponse struct {
	Intent  string         `json:"intent"`
	Answers map[string]any `json:"answers"`
	Message string         `json:"message"`
}

// ExtractionResult reports what the extraction node produced, so the
// driver can choose the right successor per §4.1 rule 4.
type ExtractionResult struct {
	// DirectAction is set when the LLM pre-empted the turn with a direct
	// action object instead of the multi_answer shape; the driver routes
	// straight to finalize with this action.
	DirectAction *action.Action
}

// Extraction runs at most once per session: it asks the LLM to pull as
// many field values as possible out of the user's first substantive
// message, merges the ones that validate, and marks extraction done.
// Extraction never fails the turn — a non-JSON or empty response just
// adds zero answers. Grounded on agent/nodes/extraction.py's
// extraction_node.
func Extraction(ctx context.Context, client llm.Client, model string, fc *formctx.FormContext, form *formstate.State, st *session.State, userMessage string, log *slog.Logger) ExtractionResult {
	st.InitialExtractionDone = true

	sysPrompt := prompt.BuildExtraction(fc)
	req := llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: sysPrompt},
			{Role: llm.RoleUser, Content: userMessage},
		},
	}

	resp, err := client.Complete(ctx, req)
	if err != nil {
		if log != nil {
			log.Warn("extraction llm call failed", "error", err)
		}
		return ExtractionResult{}
	}

	raw, ok := guards.ExtractJSON(resp.Content)
	if !ok {
		return ExtractionResult{}
	}

	// A direct action object pre-empts the turn: it carries "action", not
	// "intent".
	if hasDirectAction(raw) {
		decoded, err := guards.DecodeAction(raw)
		if err != nil {
			return ExtractionResult{}
		}
		return ExtractionResult{DirectAction: &decoded}
	}

	var parsed multiAnswerResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || len(parsed.Answers) == 0 {
		return ExtractionResult{}
	}

	accepted := make(map[string]any, len(parsed.Answers))
	for fieldID, value := range parsed.Answers {
		fieldType, known := fc.FieldTypes[fieldID]
		if !known {
			continue
		}
		if fieldType == formctx.FieldDate || fieldType == formctx.FieldDatetime {
			s, isString := value.(string)
			if !isString {
				continue
			}
			if _, err := formstate.ParseLenientTimestamp(s); err != nil {
				continue // §4.3 step 3: drop silently on parse failure
			}
		}
		accepted[fieldID] = value
	}

	if len(accepted) > 0 {
		form.SetAnswersBulk(accepted)
	}

	return ExtractionResult{}
}

// hasDirectAction reports whether raw carries a top-level "action" key,
// distinguishing a pre-empting direct action from the multi_answer shape.
func hasDirectAction(raw string) bool {
	var probe struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return false
	}
	return probe.Action != ""
}
