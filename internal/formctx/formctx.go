package formctx

import "sort"

// FormContext is the parsed result of a form_context_md document: the
// structured schema when a frontmatter block is present, plus the derived
// values the rest of the orchestrator needs (§4.2, §4.7).
type FormContext struct {
	Title          string
	Schema         *FormSchema // nil for a markdown-only form definition
	RequiredFields []string    // declaration order
	FieldTypes     map[string]FieldType
	Condensed      string // form reference block for the conversation prompt
}

// Parse builds a FormContext from the raw form_context_md document.
func Parse(formContextMD string) (*FormContext, error) {
	schema, err := ParseSchema(formContextMD)
	if err != nil {
		return nil, err
	}

	fc := &FormContext{
		Title:      ExtractTitle(formContextMD),
		Schema:     schema,
		FieldTypes: make(map[string]FieldType),
		Condensed:  Condense(formContextMD),
	}

	if schema == nil {
		return fc, nil
	}

	for _, f := range schema.Fields {
		fc.FieldTypes[f.ID] = f.Type
		if f.Required {
			fc.RequiredFields = append(fc.RequiredFields, f.ID)
		}
	}

	return fc, nil
}

// VisibleFields returns the schema's fields whose visible_if conditions are
// satisfied by answers, preserving declaration order.
func (fc *FormContext) VisibleFields(answers map[string]any) []FormField {
	if fc == nil || fc.Schema == nil {
		return nil
	}
	visible := make([]FormField, 0, len(fc.Schema.Fields))
	for _, f := range fc.Schema.Fields {
		if IsFieldVisible(&f, answers) {
			visible = append(visible, f)
		}
	}
	return visible
}

// RequiredFieldSet returns RequiredFields as a lookup set, for membership
// checks that don't care about order.
func (fc *FormContext) RequiredFieldSet() map[string]bool {
	set := make(map[string]bool, len(fc.RequiredFields))
	for _, id := range fc.RequiredFields {
		set[id] = true
	}
	return set
}

// SortedFieldIDs returns every declared field id in lexical order, used
// when a stable, deterministic ordering is needed independent of map
// iteration (e.g. for logging or snapshot tests).
func (fc *FormContext) SortedFieldIDs() []string {
	if fc == nil || fc.Schema == nil {
		return nil
	}
	ids := make([]string, len(fc.Schema.Fields))
	for i, f := range fc.Schema.Fields {
		ids[i] = f.ID
	}
	sort.Strings(ids)
	return ids
}
