package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChain adapts any langchaingo llms.Model to LLM.
type LangChain struct {
	model llms.Model
	opts  *options
}

var _ LLM = (*LangChain)(nil)

// NewLangChain wraps model.
func NewLangChain(model llms.Model, opts ...Option) *LangChain {
	return &LangChain{model: model, opts: newOptions(opts)}
}

// NewLangChainOpenAI builds a langchaingo OpenAI-compatible model and wraps it.
// baseURL may be empty for the public endpoint.
func NewLangChainOpenAI(apiKey, baseURL string, opts ...Option) (*LangChain, error) {
	o := newOptions(opts)
	lcOpts := []lcopenai.Option{lcopenai.WithToken(apiKey)}
	if o.model != "" {
		lcOpts = append(lcOpts, lcopenai.WithModel(o.model))
	}
	if baseURL != "" {
		lcOpts = append(lcOpts, lcopenai.WithBaseURL(baseURL))
	}
	model, err := lcopenai.New(lcOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return &LangChain{model: model, opts: o}, nil
}

func (l *LangChain) callOptions(extra ...llms.CallOption) []llms.CallOption {
	callOpts := []llms.CallOption{llms.WithTemperature(l.opts.temperature)}
	if l.opts.model != "" {
		callOpts = append(callOpts, llms.WithModel(l.opts.model))
	}
	if l.opts.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(l.opts.maxTokens))
	}
	return append(callOpts, extra...)
}

func (l *LangChain) generate(ctx context.Context, prompt string, extra ...llms.CallOption) (string, error) {
	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	resp, err := l.model.GenerateContent(ctx, messages, l.callOptions(extra...)...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", ErrOracle, ErrEmptyResponse)
	}
	return resp.Choices[0].Content, nil
}

// Complete implements LLM.
func (l *LangChain) Complete(ctx context.Context, prompt string) (string, error) {
	return l.generate(ctx, prompt)
}

// CompleteStructured implements LLM. The schema travels in the prompt and
// JSON mode is requested from the provider.
func (l *LangChain) CompleteStructured(ctx context.Context, prompt, name string, out any) error {
	def, err := Schema(out)
	if err != nil {
		return err
	}
	instruction, err := SchemaInstruction(def)
	if err != nil {
		return err
	}
	content, err := l.generate(ctx, prompt+instruction, llms.WithJSONMode())
	if err != nil {
		return err
	}
	if err := Decode(content, def, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// CompleteStream implements LLM.
func (l *LangChain) CompleteStream(ctx context.Context, prompt string, fn StreamFunc) (string, error) {
	var sb strings.Builder
	streamed := false
	content, err := l.generate(ctx, prompt, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		streamed = true
		sb.Write(chunk)
		if fn == nil {
			return nil
		}
		return fn(ctx, string(chunk))
	}))
	if err != nil {
		return sb.String(), err
	}
	if !streamed {
		// provider ignored the streaming option; deliver the reply as one fragment
		if fn != nil && content != "" {
			if err := fn(ctx, content); err != nil {
				return content, fmt.Errorf("%w: %w", ErrOracle, err)
			}
		}
		return content, nil
	}
	return sb.String(), nil
}
