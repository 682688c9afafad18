package adapter

import (
	"fmt"
	"strings"

	"github.com/formpilotai/formpilot/internal/action"
)

// RenderAction turns an action.Action into the plain text a chat platform
// adapter posts back to the user, since Slack/Telegram have no concept of
// the structured JSON wire format the HTTP transport returns.
func RenderAction(act action.Action) string {
	switch act.Kind {
	case action.KindMessage:
		return act.Text
	case action.KindToolCall:
		return fmt.Sprintf("[TOOL_CALL] %s", act.ToolName)
	case action.KindFormComplete:
		var b strings.Builder
		b.WriteString("[FORM_COMPLETE] ")
		if act.Message != "" {
			b.WriteString(act.Message)
		} else {
			b.WriteString("All done, thanks!")
		}
		return b.String()
	default:
		if act.Kind.IsAsk() {
			prompt := act.Label
			if prompt == "" {
				prompt = act.Message
			}
			if len(act.Options) > 0 {
				return fmt.Sprintf("%s (%s)", prompt, strings.Join(act.Options, ", "))
			}
			return prompt
		}
		return "Error: unrecognized action"
	}
}
