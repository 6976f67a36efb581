package oracle

import (
	"errors"
	"fmt"
)

// Providers accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
)

// ErrUnknownProvider is returned by New for a provider name it does not know.
var ErrUnknownProvider = errors.New("unknown llm provider")

// New builds the LLM for a provider name: ProviderOpenAI talks to an
// OpenAI-compatible API through go-openai, ProviderLangChain through langchaingo.
func New(provider, apiKey, baseURL string, opts ...Option) (LLM, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAI(apiKey, baseURL, opts...), nil
	case ProviderLangChain:
		return NewLangChainOpenAI(apiKey, baseURL, opts...)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownProvider, provider)
}
