package formstate

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/formpilotai/formpilot/internal/formctx"
)

// validateAnswer dispatches to the per-type validator. Grounded on
// FormStateManager._validate_answer's match statement.
func validateAnswer(field *formctx.FormField, value any) error {
	switch field.Type {
	case formctx.FieldDropdown:
		return validateDropdown(field, value)
	case formctx.FieldCheckbox:
		return validateCheckbox(field, value)
	case formctx.FieldText:
		return validateText(field, value)
	case formctx.FieldDate:
		return validateDate(field, value)
	case formctx.FieldDatetime:
		return validateDatetime(field, value)
	case formctx.FieldLocation:
		return validateLocation(field, value)
	default:
		return nil
	}
}

func validateDropdown(field *formctx.FormField, value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid(field.ID, "dropdown answer must be a string")
	}
	if len(field.Options) > 0 && !contains(field.Options, s) {
		return invalid(field.ID, fmt.Sprintf("%q is not a valid option, choose from: %v", s, field.Options))
	}
	return nil
}

func validateCheckbox(field *formctx.FormField, value any) error {
	list, ok := toStringSlice(value)
	if !ok {
		return invalid(field.ID, "checkbox answer must be a list")
	}
	if len(list) == 0 {
		return invalid(field.ID, "checkbox answer must not be empty")
	}
	if len(field.Options) > 0 {
		var bad []string
		for _, v := range list {
			if !contains(field.Options, v) {
				bad = append(bad, v)
			}
		}
		if len(bad) > 0 {
			return invalid(field.ID, fmt.Sprintf("invalid checkbox values: %v, choose from: %v", bad, field.Options))
		}
	}
	return nil
}

func validateText(field *formctx.FormField, value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid(field.ID, "text answer must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return invalid(field.ID, "text answer must not be empty")
	}
	return nil
}

func validateDate(field *formctx.FormField, value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid(field.ID, "date answer must be a string")
	}
	if _, err := parseLenientTimestamp(s); err != nil {
		return invalid(field.ID, fmt.Sprintf("%q is not a valid date", s))
	}
	return nil
}

func validateDatetime(field *formctx.FormField, value any) error {
	s, ok := value.(string)
	if !ok {
		return invalid(field.ID, "datetime answer must be a string")
	}
	if _, err := parseLenientTimestamp(s); err != nil {
		return invalid(field.ID, fmt.Sprintf("%q is not a valid datetime", s))
	}
	return nil
}

func validateLocation(field *formctx.FormField, value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return invalid(field.ID, "location answer must be an object with 'lat' and 'lng'")
	}
	latRaw, hasLat := m["lat"]
	lngRaw, hasLng := m["lng"]
	if !hasLat || !hasLng {
		return invalid(field.ID, "location must include 'lat' and 'lng'")
	}
	lat, ok1 := toFloat(latRaw)
	lng, ok2 := toFloat(lngRaw)
	if !ok1 || !ok2 {
		return invalid(field.ID, "'lat' and 'lng' must be numeric")
	}
	if lat < -90 || lat > 90 {
		return invalid(field.ID, fmt.Sprintf("latitude %v out of range (-90 to 90)", lat))
	}
	if lng < -180 || lng > 180 {
		return invalid(field.ID, fmt.Sprintf("longitude %v out of range (-180 to 180)", lng))
	}
	return nil
}

// ParseLenientTimestamp accepts the ISO-8601 layouts the rest of the
// conversation pipeline produces. Exported so the extraction node can
// apply the same date/datetime check (§4.3 step 3) before merging a
// model-extracted value.
func ParseLenientTimestamp(s string) (time.Time, error) {
	return parseLenientTimestamp(s)
}

// parseLenientTimestamp accepts ISO-8601, slashed variants, and
// natural-language forms ("2026-1-5", "January 5, 2026") the way
// dateutil_parser.parse does in agent/utils.py, via dateparse.ParseAny.
func parseLenientTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return dateparse.ParseAny(s)
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func toStringSlice(v any) ([]string, bool) {
	list, ok := v.([]any)
	if !ok {
		if strs, ok2 := v.([]string); ok2 {
			return strs, true
		}
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
