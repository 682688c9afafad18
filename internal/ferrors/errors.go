// Package ferrors defines FormPilot's error taxonomy: a small set of
// sentinel categories that the transport layer maps to HTTP status codes,
// and that node/guard code uses to distinguish retryable defects from
// terminal failures.
package ferrors

import "errors"

var (
	// ErrMalformedRequest - missing/empty required request field, or a
	// form_context_md that cannot be used.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrSessionNotFound - unknown conversation_id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSchemaNotFound - unknown schema filename.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrGuardExhausted - LLM output failed every guard across all retries.
	ErrGuardExhausted = errors.New("guard retries exhausted")

	// ErrLLMTransport - network/timeout error talking to the LLM backend.
	ErrLLMTransport = errors.New("llm transport error")

	// ErrInvalidAnswer - an answer failed §4.6 validation for its field type.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrToolMismatch - tool_results referenced a tool that wasn't pending.
	ErrToolMismatch = errors.New("tool result mismatch")
)
