package nodes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/session"
)

// confirmWords/editWords are bilingual (English/Arabic) token sets used to
// recognize a step-confirmation reply without involving the LLM. Grounded
// verbatim on agent/nodes/step_confirmation.py's _CONFIRM_WORDS/_EDIT_WORDS.
var confirmWords = []string{
	"yes", "ok", "okay", "confirm", "confirmed", "continue", "proceed",
	"looks good", "all good", "correct", "approved",
	"نعم", "ايوه", "ايوا", "تمام", "موافق", "اكمل", "استمر",
}

var editWords = []string{
	"change", "update", "edit", "modify", "fix", "wrong", "not correct",
	"تعديل", "غير", "غيّر", "عدل", "صحح", "خطأ", "مو صحيح",
}

// shortWordBoundaryCache matches the Python original's use of a
// word-boundary regex for short ASCII alphabetic tokens (len <= 3), to
// avoid e.g. "my" matching inside "any". Every short token confirmWords/
// editWords can ever contain is known at compile time, so the whole cache
// is built once in init() rather than lazily populated by hasToken —
// StepConfirmation runs concurrently across sessions (§5), and a shared
// map with no synchronization would race on first use of a new token.
var shortWordBoundaryCache map[string]*regexp.Regexp

func init() {
	shortWordBoundaryCache = make(map[string]*regexp.Regexp)
	for _, token := range confirmWords {
		cacheShortWordBoundary(token)
	}
	for _, token := range editWords {
		cacheShortWordBoundary(token)
	}
}

func cacheShortWordBoundary(token string) {
	if !isShortASCIIWord(token) {
		return
	}
	shortWordBoundaryCache[token] = regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
}

// StepConfirmationResult reports what the step_confirmation node decided.
// When Action is non-nil the turn ends here (skip_conversation_turn=true
// in the original): the driver must not run conversation/finalize.
// Otherwise HistoryEntries carries the directive to append before routing
// to the conversation node.
type StepConfirmationResult struct {
	HistoryEntries []session.Message
	Action         *action.Action
}

// StepConfirmation handles a user's reply to a step-completion checkpoint
// (SPEC_FULL §12.2). Grounded verbatim in structure on
// agent/nodes/step_confirmation.py's step_confirmation_node.
func StepConfirmation(st *session.State, userMessage string) StepConfirmationResult {
	text := strings.ToLower(strings.TrimSpace(userMessage))
	currentStep := st.CurrentStep
	if currentStep == 0 {
		currentStep = 1
	}
	stepFields := st.RequiredFieldsByStep[currentStep]

	if isConfirm(text) && !isEditRequest(text) {
		if !containsInt(st.CompletedSteps, currentStep) {
			st.CompletedSteps = append(st.CompletedSteps, currentStep)
		}
		st.AwaitingStepConfirmation = false
		st.AllowAnsweredFieldUpdate = false
		st.PendingFieldID = ""
		st.PendingActionType = ""
		if currentStep < st.MaxStep {
			st.CurrentStep = currentStep + 1
		}

		directive := fmt.Sprintf(
			"[SYSTEM: The user confirmed Step %d. Proceed to the next step now. Ask the next required unanswered field.]",
			currentStep,
		)
		return StepConfirmationResult{
			HistoryEntries: []session.Message{{Role: session.RoleUser, Content: directive}},
		}
	}

	if isEditRequest(text) {
		st.AwaitingStepConfirmation = false
		st.AllowAnsweredFieldUpdate = true
		st.PendingFieldID = ""
		st.PendingActionType = ""

		fieldID, ok := inferRequestedField(text, stepFields, st.FieldPromptMap)
		if ok {
			actionType := actionKindForFieldType(st.FieldTypes[fieldID])
			promptText := st.FieldPromptMap[fieldID]
			if promptText == "" {
				promptText = fmt.Sprintf("Please share the updated value for %s.", fieldID)
			}
			askMessage := "Sure, let's update that. " + promptText

			act := action.Ask(actionType, fieldID, promptText, nil, askMessage)
			st.PendingFieldID = fieldID
			st.PendingActionType = string(actionType)

			return StepConfirmationResult{
				HistoryEntries: []session.Message{{Role: session.RoleAssistant, Content: askMessage}},
				Action:         &act,
			}
		}

		directive := fmt.Sprintf(
			"[SYSTEM: The user requested changes before confirming Step %d. Step %d fields: %v. "+
				"Help them update the requested item. Do NOT move to the next step yet. Once Step %d "+
				"is complete again, provide a new summary and ask for confirmation.]",
			currentStep, currentStep, stepFields, currentStep,
		)
		return StepConfirmationResult{
			HistoryEntries: []session.Message{{Role: session.RoleUser, Content: directive}},
		}
	}

	// Unclear answer — re-emit the confirmation prompt unchanged.
	msg := fmt.Sprintf(
		"Step %d is ready. Please confirm to continue, or tell me what you'd like to update in this step.",
		currentStep,
	)
	act := action.Message(msg)
	st.AllowAnsweredFieldUpdate = false
	return StepConfirmationResult{
		HistoryEntries: []session.Message{{Role: session.RoleAssistant, Content: msg}},
		Action:         &act,
	}
}

// actionKindForFieldType maps a field's declared type to the ASK_* kind
// used when step_confirmation answers an edit request directly, skipping
// the LLM for that turn. Grounded verbatim on _action_for_field_type —
// dropdown/checkbox fields fall back to ASK_TEXT, matching the original.
func actionKindForFieldType(t formctx.FieldType) action.Kind {
	switch t {
	case formctx.FieldDate:
		return action.KindAskDate
	case formctx.FieldDatetime:
		return action.KindAskDatetime
	case formctx.FieldLocation:
		return action.KindAskLocation
	default:
		return action.KindAskText
	}
}

// inferRequestedField matches the edit request's text against the current
// step's field ids and prompt text. Grounded on
// _infer_requested_field/_important_words.
func inferRequestedField(text string, stepFields []string, fieldPromptMap map[string]string) (string, bool) {
	for _, fieldID := range stepFields {
		if strings.Contains(text, strings.ToLower(fieldID)) {
			return fieldID, true
		}
		label := strings.ToLower(fieldPromptMap[fieldID])
		if label == "" {
			continue
		}
		for _, word := range importantWords(label) {
			if strings.Contains(text, word) {
				return fieldID, true
			}
		}
	}
	return "", false
}

var stopWords = map[string]bool{"please": true, "provide": true, "share": true}

// importantWords extracts 4+ letter alphabetic runs, dropping a small
// instruction-verb stoplist. Grounded verbatim on _important_words.
func importantWords(label string) []string {
	matches := regexp.MustCompile(`[a-zA-Z]{4,}`).FindAllString(label, -1)
	var out []string
	for _, w := range matches {
		lw := strings.ToLower(w)
		if !stopWords[lw] {
			out = append(out, lw)
		}
	}
	return out
}

func isConfirm(text string) bool {
	for _, token := range confirmWords {
		if hasToken(text, token) {
			return true
		}
	}
	return false
}

func isEditRequest(text string) bool {
	for _, token := range editWords {
		if hasToken(text, token) {
			return true
		}
	}
	return false
}

// hasToken mirrors _has_token: short (<=3 char) ASCII-alphabetic tokens
// use word-boundary matching to avoid false positives like "my" inside
// "any"; everything else (longer words, multi-word phrases, Arabic) is a
// plain substring match.
func hasToken(text, token string) bool {
	if re, ok := shortWordBoundaryCache[token]; ok {
		return re.MatchString(text)
	}
	if isShortASCIIWord(token) {
		// Not reachable for confirmWords/editWords (all precomputed in
		// init()), but a compiled-on-demand fallback keeps this correct
		// for any token a future caller passes directly, without writing
		// back into the shared cache.
		return regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`).MatchString(text)
	}
	return strings.Contains(text, token)
}

func isShortASCIIWord(s string) bool {
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r > 127 || !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
