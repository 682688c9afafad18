package guards

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/formpilotai/formpilot/internal/action"
)

// Violation is a non-nil result from a guard check: the corrective message
// to append to the retry history.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

func violation(format string, args ...any) *Violation {
	return &Violation{Message: fmt.Sprintf(format, args...)}
}

// CheckUnparseable fires when JSON extraction itself failed. Grounded on
// §4.8's first guard row.
func CheckUnparseable(ok bool) *Violation {
	if ok {
		return nil
	}
	return violation("Respond with ONLY the JSON object — no prose, no fences.")
}

// CheckKnownAction fires when the `action` field isn't one of the nine
// valid kinds. Grounded on §4.8's second guard row / agent/utils.py's
// VALID_ACTION_TYPES check.
func CheckKnownAction(raw string) *Violation {
	kind := action.Kind(gjson.Get(raw, "action").String())
	if action.ValidKinds[kind] {
		return nil
	}
	return violation(
		"The only allowed values are: MESSAGE, ASK_TEXT, ASK_DROPDOWN, ASK_CHECKBOX, "+
			"ASK_DATE, ASK_DATETIME, ASK_LOCATION, TOOL_CALL, FORM_COMPLETE (got %q).",
		kind,
	)
}

// CheckNoReaskAnswered fires when an ASK_* action names a field_id that
// already has a stored answer. Grounded on §4.8's third guard row.
func CheckNoReaskAnswered(raw string, answers map[string]any, nextField string) *Violation {
	kind := action.Kind(gjson.Get(raw, "action").String())
	if !kind.IsAsk() {
		return nil
	}
	fieldID := gjson.Get(raw, "field_id").String()
	if fieldID == "" {
		return nil
	}
	value, answered := answers[fieldID]
	if !answered {
		return nil
	}
	return violation(
		"Field `%s` is already answered with `%v`; ask the next missing field: `%s`.",
		fieldID, value, nextField,
	)
}

// CheckMessageWhileMissing fires when the model emits MESSAGE while
// required fields remain unanswered. Grounded on §4.8's fourth guard row.
func CheckMessageWhileMissing(raw string, missingRemain bool, nextField string) *Violation {
	if action.Kind(gjson.Get(raw, "action").String()) != action.KindMessage {
		return nil
	}
	if !missingRemain {
		return nil
	}
	return violation("Use the correct `ASK_*` action for `%s`, not MESSAGE.", nextField)
}

// CheckDropdownOptions fires when ASK_DROPDOWN/ASK_CHECKBOX carries no
// options — the model skipped the TOOL_CALL that would have supplied
// them. Grounded on §4.8's fifth guard row.
func CheckDropdownOptions(raw string, toolHint string) *Violation {
	kind := action.Kind(gjson.Get(raw, "action").String())
	if kind != action.KindAskDropdown && kind != action.KindAskCheckbox {
		return nil
	}
	options := gjson.Get(raw, "options")
	if options.IsArray() && len(options.Array()) > 0 {
		return nil
	}
	return violation(
		"Emit `TOOL_CALL` for `%s` first; do not ask a dropdown with empty options.",
		toolHint,
	)
}

// CheckPrematureCompletion fires when FORM_COMPLETE is emitted while
// required fields remain. Grounded on §4.8's sixth guard row.
func CheckPrematureCompletion(raw string, missing []string) *Violation {
	if action.Kind(gjson.Get(raw, "action").String()) != action.KindFormComplete {
		return nil
	}
	if len(missing) == 0 {
		return nil
	}
	return violation(
		"Required fields still missing: `%s`; ask `%s`.",
		strings.Join(missing, ", "), missing[0],
	)
}

// ConvertUnknownToMessage rewrites a JSON object with an unrecognized
// action kind into a MESSAGE action, when it carries recognizable text —
// mirrors agent/utils.py's "convert to MESSAGE if it has text content"
// escape hatch, applied before falling back to a full retry.
func ConvertUnknownToMessage(raw string) (converted string, ok bool) {
	text := gjson.Get(raw, "text").String()
	if text == "" {
		text = gjson.Get(raw, "message").String()
	}
	if text == "" {
		return "", false
	}

	out, err := sjson.SetRaw(`{}`, "action", `"MESSAGE"`)
	if err != nil {
		return "", false
	}
	out, err = sjson.Set(out, "text", text)
	if err != nil {
		return "", false
	}
	return out, true
}
