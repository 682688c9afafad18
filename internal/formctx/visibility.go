// Visibility evaluation. Grounded on core/visibility.py's
// is_field_visible / _evaluate_condition / _compare_dates — all
// comparisons are deterministic and run entirely in backend code.
package formctx

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// IsFieldVisible reports whether f should currently be shown, given the
// answers collected so far. A field with no VisibleIf rule is always
// visible.
func IsFieldVisible(f *FormField, answers map[string]any) bool {
	if f == nil || f.VisibleIf == nil {
		return true
	}
	for _, cond := range f.VisibleIf.All {
		if !evaluateCondition(cond, answers) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond VisibilityCondition, answers map[string]any) bool {
	actual, has := answers[cond.Field]

	switch cond.Operator {
	case OpExists:
		return has && actual != nil && actual != ""

	case OpEquals:
		return has && cond.Value != nil && toComparable(actual) == *cond.Value

	case OpNotEquals:
		if !has {
			return true
		}
		return cond.Value == nil || toComparable(actual) != *cond.Value

	case OpAfter, OpBefore, OpOnOrAfter, OpOnOrBefore:
		if !has {
			return false
		}
		compareValue, ok := compareValueFor(cond, answers)
		if !ok {
			return false
		}
		return compareDates(cond.Operator, toComparable(actual), compareValue)

	default:
		return false
	}
}

// compareValueFor resolves the static `value` or the dynamic `value_field`
// comparison operand for date-ordering operators.
func compareValueFor(cond VisibilityCondition, answers map[string]any) (string, bool) {
	if cond.ValueField != nil {
		v, has := answers[*cond.ValueField]
		if !has {
			return "", false
		}
		return toComparable(v), true
	}
	if cond.Value != nil {
		return *cond.Value, true
	}
	return "", false
}

func compareDates(op ConditionOperator, actual, compare string) bool {
	a, err1 := parseLenientDate(actual)
	b, err2 := parseLenientDate(compare)
	if err1 != nil || err2 != nil {
		return false
	}

	switch op {
	case OpAfter:
		return a.After(b)
	case OpBefore:
		return a.Before(b)
	case OpOnOrAfter:
		return a.After(b) || a.Equal(b)
	case OpOnOrBefore:
		return a.Before(b) || a.Equal(b)
	default:
		return false
	}
}

func toComparable(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return ""
	}
}

// parseLenientDate accepts the same slashed and natural-language forms
// as formstate.ParseLenientTimestamp, since a VisibleIf condition's
// comparison value is author-entered form-schema text, not guaranteed
// to already be in the ISO-8601 shape stored answers normalize to.
func parseLenientDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return dateparse.ParseAny(s)
}
