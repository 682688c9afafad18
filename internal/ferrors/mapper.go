package ferrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Wrap attaches a message to err without changing its category.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapWithCategory wraps err, replacing its category with the given sentinel
// so that errors.Is(result, category) holds regardless of err's own chain.
func WrapWithCategory(err error, message string, category error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %v: %w", message, err, category)
}

// IsCategory reports whether err belongs to the given sentinel category.
func IsCategory(err error, category error) bool {
	return err != nil && errors.Is(err, category)
}

func MalformedRequest(message string) error { return fmt.Errorf("%s: %w", message, ErrMalformedRequest) }
func SessionNotFound(message string) error  { return fmt.Errorf("%s: %w", message, ErrSessionNotFound) }
func SchemaNotFound(message string) error   { return fmt.Errorf("%s: %w", message, ErrSchemaNotFound) }
func GuardExhausted(message string) error   { return fmt.Errorf("%s: %w", message, ErrGuardExhausted) }
func LLMTransport(message string) error     { return fmt.Errorf("%s: %w", message, ErrLLMTransport) }
func InvalidAnswer(message string) error    { return fmt.Errorf("%s: %w", message, ErrInvalidAnswer) }
func ToolMismatch(message string) error     { return fmt.Errorf("%s: %w", message, ErrToolMismatch) }

// HTTPStatus maps an error to the status code table in spec §6/§7.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSchemaNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrLLMTransport), errors.Is(err, ErrGuardExhausted):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
