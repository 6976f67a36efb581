package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when WithModel is not given.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI talks to any OpenAI-compatible chat completions endpoint and uses
// native JSON schema response formats for structured replies.
type OpenAI struct {
	client *openai.Client
	opts   *options
}

var _ LLM = (*OpenAI)(nil)

// NewOpenAI creates an adapter. baseURL may be empty for the public endpoint.
func NewOpenAI(apiKey, baseURL string, opts ...Option) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	o := newOptions(opts)
	if o.model == "" {
		o.model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), opts: o}
}

func (c *OpenAI) request(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.opts.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.opts.temperature),
		MaxTokens:   c.opts.maxTokens,
	}
}

func (c *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", ErrOracle, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// Complete implements LLM.
func (c *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, c.request(prompt))
}

// CompleteStructured implements LLM.
func (c *OpenAI) CompleteStructured(ctx context.Context, prompt, name string, out any) error {
	def, err := Schema(out)
	if err != nil {
		return err
	}
	req := c.request(prompt)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: def,
			Strict: true,
		},
	}
	content, err := c.complete(ctx, req)
	if err != nil {
		return err
	}
	if err := Decode(content, def, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// CompleteStream implements LLM.
func (c *OpenAI) CompleteStream(ctx context.Context, prompt string, fn StreamFunc) (string, error) {
	req := c.request(prompt)
	req.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), fmt.Errorf("%w: %v", ErrOracle, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if fn != nil {
			if err := fn(ctx, chunk); err != nil {
				return sb.String(), fmt.Errorf("%w: %w", ErrOracle, err)
			}
		}
	}
}
