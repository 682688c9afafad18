package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
)

func TestActionCatalog_CoversAllKinds(t *testing.T) {
	for kind := range action.ValidKinds {
		assert.Contains(t, actionCatalog, string(kind), "action catalog is missing kind %s", kind)
	}
}

func TestBuildConversation_IncludesMissingFieldAndCondensed(t *testing.T) {
	fc := &formctx.FormContext{
		Condensed: "## Form Overview\nLeave request form.",
	}
	missing := []formctx.FormField{{ID: "leave_type", Type: formctx.FieldDropdown}}

	out := BuildConversation(fc, map[string]any{}, missing, true)

	assert.Contains(t, out, "leave_type")
	assert.Contains(t, out, "requires a TOOL_CALL")
	assert.Contains(t, out, "Form Overview")
}

func TestBuildConversation_CompleteFormNotesNoMissingFields(t *testing.T) {
	fc := &formctx.FormContext{Condensed: "form body"}
	out := BuildConversation(fc, map[string]any{"leave_type": "Annual"}, nil, false)

	assert.Contains(t, out, "the form is complete")
}

func TestBuildExtraction_ListsRequiredFieldsSorted(t *testing.T) {
	fc := &formctx.FormContext{
		RequiredFields: []string{"start_date", "leave_type"},
		FieldTypes: map[string]formctx.FieldType{
			"start_date": formctx.FieldDate,
			"leave_type": formctx.FieldDropdown,
		},
	}

	out := BuildExtraction(fc)

	leaveIdx := indexOf(out, "leave_type")
	startIdx := indexOf(out, "start_date")
	assert.True(t, leaveIdx >= 0 && startIdx >= 0 && leaveIdx < startIdx)
	assert.Contains(t, out, "multi_answer")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
