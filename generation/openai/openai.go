// Package openai adapts the OpenAI Chat Completions API to the
// generation.Collaborator interface. Persona identity, speaking style and
// the current emotion state are rendered into the system message; the
// bounded conversation window plus the user message form the prompt body.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation"
)

// Options configure the OpenAI collaborator adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Collaborator wraps the OpenAI client behind generation.Collaborator.
type Collaborator struct {
	client *openai.Client
	opts   Options
}

// New creates a collaborator using the default client (API key from env).
func New(optFns ...func(o *Options)) *Collaborator {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a collaborator from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Collaborator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.8,
		MaxCompletionTokens: 256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Collaborator{client: client, opts: opts}
}

// Generate implements generation.Collaborator.
func (c *Collaborator) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(generation.BuildSystemPrompt(req)),
		openai.UserMessage(generation.BuildUserPrompt(req)),
	}
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	})
	if err != nil {
		return generation.Response{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return generation.Response{}, fmt.Errorf("openai: no choices returned")
	}
	return generation.Response{Text: resp.Choices[0].Message.Content}, nil
}

// Info implements generation.Collaborator.
func (c *Collaborator) Info() generation.Info {
	return generation.Info{Name: c.opts.Model, Provider: "openai"}
}
