package formstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilotai/formpilot/internal/formctx"
)

func TestParseLenientTimestamp_AcceptsNonPaddedAndNaturalLanguage(t *testing.T) {
	cases := []string{"2026-1-5", "January 5, 2026"}
	for _, s := range cases {
		ts, err := parseLenientTimestamp(s)
		require.NoError(t, err, "input %q", s)
		assert.Equal(t, "2026-01-05", ts.Format("2006-01-02"), "input %q", s)
	}
}

func TestParseLenientTimestamp_RejectsGarbage(t *testing.T) {
	_, err := parseLenientTimestamp("asdf")
	assert.Error(t, err)
}

func TestValidateDate_AcceptsLenientForms(t *testing.T) {
	field := &formctx.FormField{ID: "start_date", Type: formctx.FieldDate}
	assert.NoError(t, validateDate(field, "2026-1-5"))
	assert.NoError(t, validateDate(field, "January 5, 2026"))
}
