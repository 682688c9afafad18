package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrNoChoices_IsDistinctSentinel(t *testing.T) {
	wrapped := errors.New("wrapped: " + ErrNoChoices.Error())
	assert.NotErrorIs(t, wrapped, ErrNoChoices, "plain string wrapping should not satisfy errors.Is")
}
