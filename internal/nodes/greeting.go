// Package nodes implements the six graph nodes of the conversation
// orchestrator (§4.2-§4.9), plus the supplemental step-confirmation node
// (§12.2). Each node reads the session's form context and state plus the
// turn's ephemeral input, updates the form and session state in place, and
// returns what the driver needs to route the turn or emit its action.
//
// Grounded one-to-one on agent/nodes/*.py.
package nodes

import (
	"fmt"
	"strings"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/session"
)

// Greeting builds the opening MESSAGE for a brand-new session: the form
// title plus a natural-language summary of the required fields by type.
// Terminal for the turn — never touches answers. Grounded on
// agent/nodes/greeting.py's greeting_node.
func Greeting(fc *formctx.FormContext) (action.Action, *session.State) {
	title := fc.Title
	if title == "" {
		title = "this form"
	}

	summary := summarizeFieldTypes(fc.RequiredFields, fc.FieldTypes)

	var text string
	if summary == "" {
		text = fmt.Sprintf("Hi! I'll help you fill out %s. Let's get started — what would you like to tell me first?", title)
	} else {
		text = fmt.Sprintf("Hi! I'll help you fill out %s (%s). Let's get started — what would you like to tell me first?", title, summary)
	}

	return action.Message(text), nil
}

// summarizeFieldTypes renders a short natural-language phrase like "about
// 15 items — a few dropdowns, some dates, and a couple of text fields".
func summarizeFieldTypes(requiredFields []string, fieldTypes map[string]formctx.FieldType) string {
	if len(requiredFields) == 0 {
		return ""
	}

	counts := make(map[formctx.FieldType]int)
	for _, id := range requiredFields {
		counts[fieldTypes[id]]++
	}

	var parts []string
	order := []formctx.FieldType{
		formctx.FieldDropdown, formctx.FieldCheckbox, formctx.FieldDate,
		formctx.FieldDatetime, formctx.FieldLocation, formctx.FieldText,
		formctx.FieldTime, formctx.FieldFile,
	}
	for _, t := range order {
		n, ok := counts[t]
		if !ok || n == 0 {
			continue
		}
		parts = append(parts, quantify(n, pluralFieldType(t)))
	}

	return fmt.Sprintf("about %d items — %s", len(requiredFields), strings.Join(parts, ", "))
}

func quantify(n int, noun string) string {
	switch {
	case n == 1:
		return fmt.Sprintf("a %s", strings.TrimSuffix(noun, "s"))
	case n <= 3:
		return fmt.Sprintf("a few %s", noun)
	default:
		return fmt.Sprintf("several %s", noun)
	}
}

func pluralFieldType(t formctx.FieldType) string {
	switch t {
	case formctx.FieldDropdown:
		return "dropdowns"
	case formctx.FieldCheckbox:
		return "checkboxes"
	case formctx.FieldDate:
		return "dates"
	case formctx.FieldDatetime:
		return "date/times"
	case formctx.FieldLocation:
		return "locations"
	case formctx.FieldText:
		return "text fields"
	case formctx.FieldTime:
		return "times"
	case formctx.FieldFile:
		return "file uploads"
	default:
		return "fields"
	}
}
