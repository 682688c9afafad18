package adapter

import (
	"strings"
	"testing"

	"github.com/formpilotai/formpilot/internal/action"
)

func TestRenderAction_Message(t *testing.T) {
	got := RenderAction(action.Message("What is your name?"))
	if got != "What is your name?" {
		t.Fatalf("RenderAction() = %q, want %q", got, "What is your name?")
	}
}

func TestRenderAction_AskDropdownIncludesOptions(t *testing.T) {
	act := action.AskDropdown("leave_type", "Leave type", []string{"Annual", "Sick"}, "")
	got := RenderAction(act)
	if !strings.Contains(got, "Leave type") || !strings.Contains(got, "Annual, Sick") {
		t.Fatalf("RenderAction() = %q, want it to mention label and options", got)
	}
}

func TestRenderAction_ToolCall(t *testing.T) {
	act := action.ToolCall("lookup_employee", nil, "")
	got := RenderAction(act)
	if !strings.HasPrefix(got, "[TOOL_CALL]") {
		t.Fatalf("RenderAction() = %q, want [TOOL_CALL] prefix", got)
	}
}

func TestRenderAction_FormComplete(t *testing.T) {
	act := action.FormComplete(map[string]any{"name": "Alice"}, "Thanks, Alice!")
	got := RenderAction(act)
	if !strings.HasPrefix(got, "[FORM_COMPLETE]") || !strings.Contains(got, "Thanks, Alice!") {
		t.Fatalf("RenderAction() = %q, want [FORM_COMPLETE] prefix with message", got)
	}
}
