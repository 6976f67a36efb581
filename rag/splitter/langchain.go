package splitter

import (
	"unicode/utf8"

	"github.com/lakegraph/kgqa/log"
	"github.com/tmc/langchaingo/textsplitter"
)

// LangChainCoarse adapts a langchaingo text splitter to CoarseSplitter.
type LangChainCoarse struct {
	splitter textsplitter.TextSplitter
}

var _ CoarseSplitter = (*LangChainCoarse)(nil)

// NewLangChainCoarse wraps splitter.
func NewLangChainCoarse(splitter textsplitter.TextSplitter) *LangChainCoarse {
	return &LangChainCoarse{splitter: splitter}
}

// NewLangChainRecursive builds langchaingo's recursive character splitter with
// rune lengths and the Chinese-aware default separators.
func NewLangChainRecursive(chunkSize, chunkOverlap int) *LangChainCoarse {
	return NewLangChainCoarse(textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(DefaultSeparators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	))
}

// SplitText implements CoarseSplitter. A splitter error keeps the whole text
// as a single window.
func (l *LangChainCoarse) SplitText(text string) []string {
	chunks, err := l.splitter.SplitText(text)
	if err != nil {
		log.Warn("coarse split failed, keeping the document whole: %v", err)
		return []string{text}
	}
	return chunks
}
