package formctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dateField(op ConditionOperator, value string) *FormField {
	return &FormField{
		ID: "follow_up",
		VisibleIf: &VisibilityRule{
			All: []VisibilityCondition{{Field: "start_date", Operator: op, Value: &value}},
		},
	}
}

func TestIsFieldVisible_DateComparisonAcceptsLenientForms(t *testing.T) {
	f := dateField(OpAfter, "2026-1-1")
	assert.True(t, IsFieldVisible(f, map[string]any{"start_date": "January 5, 2026"}))
}

func TestIsFieldVisible_DateComparisonRejectsUnparseable(t *testing.T) {
	f := dateField(OpAfter, "2026-01-01")
	assert.False(t, IsFieldVisible(f, map[string]any{"start_date": "asdf"}))
}
