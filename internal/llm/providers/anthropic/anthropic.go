// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to
// llm.Client. Tool-calling support is trimmed out; Anthropic's Messages API
// takes the system prompt as a top-level parameter rather than a
// role="system" message, unlike OpenAI's.
package anthropic

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/formpilotai/formpilot/internal/llm"
)

const defaultMaxTokens = 1024

type Provider struct {
	client anthropicsdk.Client
	model  string
}

func New(apiKey, model string) *Provider {
	return &Provider{
		client: anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		model = string(anthropicsdk.ModelClaude3_7SonnetLatest)
	}

	var system string
	var messages []anthropicsdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = m.Content
		case llm.RoleAssistant:
			messages = append(messages, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content)))
		}
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var content string
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			content += text.Text
		}
	}

	return &llm.Response{Content: content}, nil
}
