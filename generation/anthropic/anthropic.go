// Package anthropic adapts the Anthropic Messages API to the
// generation.Collaborator interface.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation"
)

// Options configure the Anthropic collaborator adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Collaborator wraps the Anthropic client behind generation.Collaborator.
type Collaborator struct {
	client *anthropic.Client
	opts   Options
}

// New creates a collaborator using the official client.
func New(optFns ...func(o *Options)) *Collaborator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.8,
		MaxTokens:   256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Collaborator{client: &client, opts: opts}
}

// NewFromClient creates a collaborator from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Collaborator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.8,
		MaxTokens:   256,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Collaborator{client: client, opts: opts}
}

// Generate implements generation.Collaborator.
func (c *Collaborator) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: generation.BuildSystemPrompt(req)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(generation.BuildUserPrompt(req))),
		},
	})
	if err != nil {
		return generation.Response{}, fmt.Errorf("anthropic api error: %w", err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return generation.Response{}, fmt.Errorf("anthropic: empty response")
	}
	return generation.Response{Text: text}, nil
}

// Info implements generation.Collaborator.
func (c *Collaborator) Info() generation.Info {
	return generation.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}
