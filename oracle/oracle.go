// Package oracle wraps the language models used by the agent workflow and the
// structural splitter behind a small interface: plain completion, structured
// completion decoded into a Go value, and token streaming.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTemperature is used when no temperature option is given.
const DefaultTemperature = 0.2

var (
	// ErrOracle wraps every failure reported by the underlying model provider.
	ErrOracle = errors.New("oracle failure")

	// ErrStructuredOutput reports a structured reply that could not be decoded
	// into the requested shape, even after repair. It is itself an ErrOracle.
	ErrStructuredOutput = fmt.Errorf("%w: structured output error", ErrOracle)

	// ErrEmptyResponse is returned when the model produced no choices.
	ErrEmptyResponse = errors.New("empty response")
)

// StreamFunc receives one text fragment. Returning an error stops the stream.
type StreamFunc func(ctx context.Context, chunk string) error

// LLM is a text-generation oracle.
type LLM interface {
	// Complete returns the full reply to a single user prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteStructured asks for a reply matching the JSON schema of out and
	// decodes it into out. name labels the schema for providers that need one.
	CompleteStructured(ctx context.Context, prompt, name string, out any) error

	// CompleteStream calls fn for every fragment in order and returns the
	// concatenated reply.
	CompleteStream(ctx context.Context, prompt string, fn StreamFunc) (string, error)
}

type options struct {
	model       string
	temperature float64
	maxTokens   int
}

// Option configures an LLM adapter.
type Option func(*options)

// WithModel sets the model name sent to the provider.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *options) {
		o.temperature = t
	}
}

// WithMaxTokens caps the reply length. Zero leaves the provider default.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		o.maxTokens = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
