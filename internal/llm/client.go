// Package llm wraps the three model backends FormPilot can talk to behind
// a single interface. Every call site needs exactly one thing: send a
// system prompt plus conversation history, get back the raw assistant
// text (expected to be a JSON object per §4.7/§4.8) — there is no tool
// calling, no embeddings, no provider fallback chain. The Message shape
// and provider-struct construction pattern are trimmed down to this
// simpler single-shot-per-turn need.
package llm

import (
	"context"
	"fmt"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is a single completion call.
type Request struct {
	Model    string
	Messages []Message
}

// Response is the model's reply. FormPilot never uses function/tool
// calling on the model side — TOOL_CALL is a JSON action the model emits
// as text, not a provider tool-call.
type Response struct {
	Content string
}

// Client is implemented by each provider package.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrNoChoices is returned when a provider's response carries no usable
// completion content.
var ErrNoChoices = fmt.Errorf("llm: no completion choices returned")
