// Package formstate tracks the answer bookkeeping for a single form-filling
// session: which fields are visible, which required fields remain
// unanswered, per-type answer validation, and cascading clears when an
// answer change hides a previously-visible field.
//
// Grounded on backend/core/form_state.py's FormStateManager.
package formstate

import (
	"fmt"
	"sort"

	"github.com/formpilotai/formpilot/internal/ferrors"
	"github.com/formpilotai/formpilot/internal/formctx"
)

// ValidationError reports that a value failed §4.6 validation for its
// field's declared type.
type ValidationError struct {
	FieldID string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.FieldID, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ferrors.ErrInvalidAnswer
}

func invalid(fieldID, message string) error {
	return &ValidationError{FieldID: fieldID, Message: message}
}

// State manages the answers collected for one schema-backed form session.
type State struct {
	schema  *formctx.FormSchema
	answers map[string]any
}

// New builds a State for the given schema. Panics if schema is nil — callers
// must not construct form state for a markdown-only (schema-less) form.
func New(schema *formctx.FormSchema) *State {
	if schema == nil {
		panic("formstate: schema must not be nil")
	}
	return &State{schema: schema, answers: make(map[string]any)}
}

// Clone returns an independent copy of s: the schema pointer is shared
// (read-only) but answers is a fresh map, so mutating the clone (via
// SetAnswer, SetAnswersBulk, ClearAnswer) never touches s. Used to give a
// turn a working copy to mutate, so a canceled turn's partial edits can be
// discarded instead of committed to the session (§5).
func (s *State) Clone() *State {
	answers := make(map[string]any, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return &State{schema: s.schema, answers: answers}
}

// VisibleFields returns fields currently visible given the answers so far.
func (s *State) VisibleFields() []formctx.FormField {
	visible := make([]formctx.FormField, 0, len(s.schema.Fields))
	for i := range s.schema.Fields {
		if formctx.IsFieldVisible(&s.schema.Fields[i], s.answers) {
			visible = append(visible, s.schema.Fields[i])
		}
	}
	return visible
}

// MissingRequiredFields returns visible, required fields with no answer
// yet, in schema declaration order.
func (s *State) MissingRequiredFields() []formctx.FormField {
	var missing []formctx.FormField
	for _, f := range s.VisibleFields() {
		if !f.Required {
			continue
		}
		if _, answered := s.answers[f.ID]; !answered {
			missing = append(missing, f)
		}
	}
	return missing
}

// NextField returns the first missing required visible field, or nil when
// the form is complete.
func (s *State) NextField() *formctx.FormField {
	missing := s.MissingRequiredFields()
	if len(missing) == 0 {
		return nil
	}
	return &missing[0]
}

// IsComplete reports whether every visible required field has an answer.
func (s *State) IsComplete() bool {
	return len(s.MissingRequiredFields()) == 0
}

// SetAnswer validates and stores value for fieldID, then handles cascading
// visibility: if the new answer hides a field that already had an answer,
// that answer is cleared (and the process repeats for chained dependents).
func (s *State) SetAnswer(fieldID string, value any) error {
	field := s.schema.FieldByID(fieldID)
	if field == nil {
		return fmt.Errorf("field %q does not exist in the schema", fieldID)
	}

	if err := validateAnswer(field, value); err != nil {
		return err
	}

	s.answers[fieldID] = value
	s.handleCascadingVisibility()
	return nil
}

// Answer returns the current answer for fieldID, or nil if unanswered.
func (s *State) Answer(fieldID string) any {
	return s.answers[fieldID]
}

// ClearAnswer removes an answer (for corrections) and re-cascades.
func (s *State) ClearAnswer(fieldID string) {
	if _, ok := s.answers[fieldID]; !ok {
		return
	}
	delete(s.answers, fieldID)
	s.handleCascadingVisibility()
}

// AllAnswers returns a copy of every stored answer.
func (s *State) AllAnswers() map[string]any {
	out := make(map[string]any, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// VisibleAnswers returns only the answers belonging to currently visible
// fields.
func (s *State) VisibleAnswers() map[string]any {
	visibleIDs := make(map[string]bool)
	for _, f := range s.VisibleFields() {
		visibleIDs[f.ID] = true
	}
	out := make(map[string]any)
	for k, v := range s.answers {
		if visibleIDs[k] {
			out[k] = v
		}
	}
	return out
}

// BulkResult is the outcome of SetAnswersBulk: which answers were accepted
// and which were rejected, keyed by field id.
type BulkResult struct {
	Accepted map[string]any
	Rejected map[string]string
}

// SetAnswersBulk attempts each answer independently, collecting acceptances
// and validation failures, then cascades visibility once at the end.
func (s *State) SetAnswersBulk(answers map[string]any) BulkResult {
	result := BulkResult{
		Accepted: make(map[string]any),
		Rejected: make(map[string]string),
	}

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var acceptedAny bool
	for _, fieldID := range ids {
		value := answers[fieldID]
		field := s.schema.FieldByID(fieldID)
		if field == nil {
			result.Rejected[fieldID] = fmt.Sprintf("field %q does not exist in the schema", fieldID)
			continue
		}
		if err := validateAnswer(field, value); err != nil {
			result.Rejected[fieldID] = err.Error()
			continue
		}
		s.answers[fieldID] = value
		result.Accepted[fieldID] = value
		acceptedAny = true
	}

	if acceptedAny {
		s.handleCascadingVisibility()
	}

	return result
}

func (s *State) handleCascadingVisibility() {
	visibleIDs := make(map[string]bool, len(s.schema.Fields))
	for _, f := range s.VisibleFields() {
		visibleIDs[f.ID] = true
	}

	var hiddenAnswered []string
	for fieldID := range s.answers {
		if !visibleIDs[fieldID] {
			hiddenAnswered = append(hiddenAnswered, fieldID)
		}
	}
	if len(hiddenAnswered) == 0 {
		return
	}

	for _, fieldID := range hiddenAnswered {
		delete(s.answers, fieldID)
	}
	// Clearing may have changed visibility further down the chain.
	s.handleCascadingVisibility()
}
