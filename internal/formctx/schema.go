// Package formctx parses a form definition document — a YAML frontmatter
// block plus a markdown body — into the structured form FormPilot's
// orchestrator needs: required field identifiers, a field-type map, the
// form title, and (§4.7) a condensed rendering of the body for the prompt
// builder.
//
// Grounded on core/schema.py (FormField/FormSchema/VisibilityRule/
// FieldType/ConditionOperator) for the frontmatter's structured shape, and
// on §4.2/§4.7 for what the markdown body contributes.
package formctx

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldType is the set of widget types a form field may declare. Spec §3
// names eight possible values; only the first six are produced by the
// structured frontmatter schema (grounded on core/schema.py's FieldType
// enum), the remaining two (time, file) are reserved for field types a
// form author may reference in free-form markdown-only definitions that
// skip the structured frontmatter.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldDropdown FieldType = "dropdown"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldDatetime FieldType = "datetime"
	FieldLocation FieldType = "location"
	FieldTime     FieldType = "time"
	FieldFile     FieldType = "file"
)

// ConditionOperator is a visibility-condition comparator, evaluated
// deterministically — never delegated to the LLM (SPEC_FULL §12.1).
type ConditionOperator string

const (
	OpExists     ConditionOperator = "EXISTS"
	OpEquals     ConditionOperator = "EQUALS"
	OpNotEquals  ConditionOperator = "NOT_EQUALS"
	OpAfter      ConditionOperator = "AFTER"
	OpBefore     ConditionOperator = "BEFORE"
	OpOnOrAfter  ConditionOperator = "ON_OR_AFTER"
	OpOnOrBefore ConditionOperator = "ON_OR_BEFORE"
)

// VisibilityCondition is one clause of a VisibilityRule.
type VisibilityCondition struct {
	Field      string            `yaml:"field"`
	Operator   ConditionOperator `yaml:"operator"`
	Value      *string           `yaml:"value,omitempty"`
	ValueField *string           `yaml:"value_field,omitempty"`
}

// VisibilityRule is a conjunction (AND logic) of conditions.
type VisibilityRule struct {
	All []VisibilityCondition `yaml:"all"`
}

// InteractionRules governs how the LLM is instructed to interact with the
// user; surfaced into the conversation prompt's Rules section (§4.7).
type InteractionRules struct {
	AskOneFieldAtATime bool `yaml:"ask_one_field_at_a_time"`
	NeverAssumeValues  bool `yaml:"never_assume_values"`
}

// FormField is a single field definition.
type FormField struct {
	ID        string          `yaml:"id"`
	Type      FieldType       `yaml:"type"`
	Required  bool            `yaml:"required"`
	Options   []string        `yaml:"options,omitempty"`
	Prompt    string          `yaml:"prompt"`
	VisibleIf *VisibilityRule `yaml:"visible_if,omitempty"`
}

// Step groups required fields for the supplemental step-confirmation
// checkpoint feature (SPEC_FULL §12.2).
type Step struct {
	Number int      `yaml:"number"`
	Fields []string `yaml:"fields"`
}

// FormSchema is the structured frontmatter: the single source of truth for
// field definitions, validation rules, and visibility conditions.
type FormSchema struct {
	FormID string            `yaml:"form_id"`
	Rules  InteractionRules  `yaml:"rules"`
	Fields []FormField       `yaml:"fields"`
	Steps  []Step            `yaml:"steps,omitempty"`
}

// frontmatter holds the raw unmarshaled YAML before validation.
type frontmatter = FormSchema

// ParseSchema parses and validates the YAML frontmatter block of a form
// document. It returns (nil, nil) when the document carries no frontmatter
// at all (a markdown-only form definition is legal; Parse then leaves
// RequiredFields and FieldTypes empty).
func ParseSchema(formContextMD string) (*FormSchema, error) {
	body, hasFrontmatter := extractFrontmatter(formContextMD)
	if !hasFrontmatter {
		return nil, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(body), &fm); err != nil {
		return nil, fmt.Errorf("parse form frontmatter: %w", err)
	}

	if err := validateSchema(&fm); err != nil {
		return nil, err
	}

	return &fm, nil
}

func validateSchema(s *FormSchema) error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("form schema %q has no fields", s.FormID)
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.ID == "" {
			return fmt.Errorf("form schema %q has a field with an empty id", s.FormID)
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate field id: %q", f.ID)
		}
		seen[f.ID] = true

		needsOptions := f.Type == FieldDropdown || f.Type == FieldCheckbox
		if needsOptions && len(f.Options) == 0 {
			return fmt.Errorf("field %q of type %q must have non-empty options", f.ID, f.Type)
		}
		if !needsOptions && len(f.Options) > 0 {
			return fmt.Errorf("field %q of type %q should not have options", f.ID, f.Type)
		}
	}

	for _, f := range s.Fields {
		if f.VisibleIf == nil {
			continue
		}
		for _, cond := range f.VisibleIf.All {
			if !seen[cond.Field] {
				return fmt.Errorf("field %q has visible_if referencing non-existent field %q", f.ID, cond.Field)
			}
			if cond.Field == f.ID {
				return fmt.Errorf("field %q has visible_if referencing itself", f.ID)
			}
			if cond.ValueField != nil && !seen[*cond.ValueField] {
				return fmt.Errorf("field %q has visible_if referencing non-existent value_field %q", f.ID, *cond.ValueField)
			}
		}
	}

	return nil
}

// FieldByID returns the field with the given id, or nil.
func (s *FormSchema) FieldByID(id string) *FormField {
	if s == nil {
		return nil
	}
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// StepForField returns the step number that contains fieldID, or 0 if the
// schema declares no steps or the field belongs to none.
func (s *FormSchema) StepForField(fieldID string) int {
	if s == nil {
		return 0
	}
	for _, step := range s.Steps {
		for _, id := range step.Fields {
			if id == fieldID {
				return step.Number
			}
		}
	}
	return 0
}

// MaxStep returns the highest declared step number, or 0 if none.
func (s *FormSchema) MaxStep() int {
	if s == nil {
		return 0
	}
	max := 0
	for _, step := range s.Steps {
		if step.Number > max {
			max = step.Number
		}
	}
	return max
}
