// Package prompt builds the two system prompts that drive the LLM calls
// in the conversation and extraction nodes (§4.7). Section ordering and
// the "identity / rules / examples / context" shape are grounded on
// agent/prompts.py's build_system_prompt/build_extraction_prompt; the
// action vocabulary itself tracks the nine §3 action kinds rather than
// the original's four-intent scheme. Built with plain string assembly —
// per §9's design note, no templating engine.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/formpilotai/formpilot/internal/formctx"
)

const identityAndContract = `You are FormPilot AI, a JSON-only API for conversational form filling. ` +
	`Every response you produce must be a single JSON object matching exactly ` +
	`one of the action shapes below. Never emit prose outside the JSON object, ` +
	`and never wrap it in a code fence.`

const actionCatalog = `## Action shapes

- {"action": "MESSAGE", "text": "<string>"}
- {"action": "ASK_TEXT", "field_id": "<id>", "label": "<string>", "message": "<string>"}
- {"action": "ASK_DROPDOWN", "field_id": "<id>", "label": "<string>", "options": ["..."], "message": "<string>"}
- {"action": "ASK_CHECKBOX", "field_id": "<id>", "label": "<string>", "options": ["..."], "message": "<string>"}
- {"action": "ASK_DATE", "field_id": "<id>", "label": "<string>", "message": "<string>"}
- {"action": "ASK_DATETIME", "field_id": "<id>", "label": "<string>", "message": "<string>"}
- {"action": "ASK_LOCATION", "field_id": "<id>", "label": "<string>", "message": "<string>"}
- {"action": "TOOL_CALL", "tool_name": "<name>", "tool_args": {...}, "message": "<string>"}
- {"action": "FORM_COMPLETE", "data": {...}, "message": "<string>"}`

const rules = `## Rules

1. Ask for exactly ONE field per turn. Never batch multiple fields into a single question.
2. Never re-ask a field that already has an accepted answer in the current answer set.
3. Never assume, guess, or fabricate a value the user did not provide.
4. For a field whose value depends on external data, emit TOOL_CALL first. Only emit the
   corresponding ASK_* action, populated from the tool result, on the next turn.
5. For dropdown and checkbox fields, the value must be an exact option string (or strings).`

const workedExamples = `## Examples

Acceptance — the user answered the pending field, move on:
  pending field: "leave_type" (dropdown: ["Annual", "Sick"])
  user: "sick leave please"
  -> {"action": "ASK_TEXT", "field_id": "reason", "label": "Reason for leave", "message": "Got it, sick leave. What's the reason?"}

Rejection — the answer doesn't satisfy the pending field, re-ask it:
  pending field: "leave_type" (dropdown: ["Annual", "Sick"])
  user: "next week"
  -> {"action": "ASK_DROPDOWN", "field_id": "leave_type", "label": "Leave type", "options": ["Annual", "Sick"], "message": "Sorry, which type of leave — Annual or Sick?"}`

// BuildConversation assembles the conversation-node system prompt: identity,
// action catalog, rules, worked examples, the condensed form reference
// data, and the current-state section (§4.7 items 1–6).
func BuildConversation(fc *formctx.FormContext, answers map[string]any, missing []formctx.FormField, nextRequiresTool bool) string {
	var b strings.Builder

	b.WriteString(identityAndContract)
	b.WriteString("\n\n")
	b.WriteString(actionCatalog)
	b.WriteString("\n\n")
	b.WriteString(rules)
	b.WriteString("\n\n")
	b.WriteString(workedExamples)
	b.WriteString("\n\n")
	b.WriteString("## Form reference data\n\n")
	b.WriteString(fc.Condensed)
	b.WriteString("\n\n")
	b.WriteString(buildStateSection(answers, missing, nextRequiresTool))

	return b.String()
}

func buildStateSection(answers map[string]any, missing []formctx.FormField, nextRequiresTool bool) string {
	var b strings.Builder
	b.WriteString("## Current state\n\n")

	if len(answers) == 0 {
		b.WriteString("answers: {}\n")
	} else {
		encoded, _ := json.Marshal(answers)
		fmt.Fprintf(&b, "answers: %s\n", encoded)
	}

	if len(missing) == 0 {
		b.WriteString("missing required fields: none — the form is complete.\n")
		return b.String()
	}

	ids := make([]string, len(missing))
	for i, f := range missing {
		ids[i] = f.ID
	}
	fmt.Fprintf(&b, "missing required fields (in order): %v\n", ids)

	next := missing[0]
	fmt.Fprintf(&b, "next field to ask: %q (type: %s)", next.ID, next.Type)
	if nextRequiresTool {
		b.WriteString(" — requires a TOOL_CALL before the corresponding ASK_* action.")
	}
	b.WriteString("\n")

	return b.String()
}

// BuildExtraction assembles the extraction-node system prompt: identity,
// the required-field type map, and the multi_answer output instruction.
func BuildExtraction(fc *formctx.FormContext) string {
	var b strings.Builder

	b.WriteString(identityAndContract)
	b.WriteString("\n\n")
	b.WriteString("The user has provided a free-text description covering potentially ")
	b.WriteString("several fields at once. Extract as many as you confidently can.\n\n")
	b.WriteString(rules)
	b.WriteString("\n\n")
	b.WriteString("## Required fields\n\n")

	ids := append([]string(nil), fc.RequiredFields...)
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s: %s\n", id, fc.FieldTypes[id])
	}

	b.WriteString("\n## Response format\n\n")
	b.WriteString(`{"intent": "multi_answer", "answers": {"<field_id>": <value>, ...}, "message": "<summary>"}` + "\n")
	b.WriteString("Include only fields you are confident about. An empty answers object is valid ")
	b.WriteString("if nothing could be confidently extracted.\n")

	return b.String()
}
