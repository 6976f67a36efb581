package splitter

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order, from paragraph breaks down to single runes.
var DefaultSeparators = []string{"\n\n", "\n", "。", "！", "？", "；", "，", " ", ""}

// RecursiveCharacterTextSplitter recursively splits text while keeping related
// pieces together. Lengths are counted in runes, and consecutive
// chunks share up to chunkOverlap of trailing content.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
}

var _ CoarseSplitter = (*RecursiveCharacterTextSplitter)(nil)

// RecursiveCharacterTextSplitterOption configures the RecursiveCharacterTextSplitter
type RecursiveCharacterTextSplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the chunk size for the splitter
func WithChunkSize(size int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the chunk overlap for the splitter
func WithChunkOverlap(overlap int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators sets the custom separators for the splitter
func WithSeparators(separators []string) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// NewRecursiveCharacterTextSplitter creates a new RecursiveCharacterTextSplitter
func NewRecursiveCharacterTextSplitter(opts ...RecursiveCharacterTextSplitterOption) *RecursiveCharacterTextSplitter {
	s := &RecursiveCharacterTextSplitter{
		separators:   DefaultSeparators,
		chunkSize:    2000,
		chunkOverlap: 200,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 {
		s.chunkSize = 1
	}
	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 2
	}

	return s
}

// SplitText splits text into chunks
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	return s.splitTextRecursive(text, s.separators)
}

// splitTextRecursive splits on the first separator present in text and
// recurses with the finer separators on pieces that are still too long.
func (s *RecursiveCharacterTextSplitter) splitTextRecursive(text string, separators []string) []string {
	separator := ""
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitOn(text, separator) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.mergeSplits(good, separator)...)
			good = nil
		}
		if len(finer) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitTextRecursive(piece, finer)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.mergeSplits(good, separator)...)
	}
	return final
}

func splitOn(text, separator string) []string {
	if separator != "" {
		return strings.Split(text, separator)
	}
	runes := []rune(text)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// mergeSplits packs pieces into chunks of at most chunkSize. When a chunk is
// emitted, pieces are dropped from its front until at most chunkOverlap
// remains, and that tail starts the next chunk.
func (s *RecursiveCharacterTextSplitter) mergeSplits(splits []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var docs, current []string
	total := 0
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range splits {
		n := utf8.RuneCountInString(piece)
		if total+n+joinCost() > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.chunkOverlap || (total > 0 && total+n+joinCost() > s.chunkSize) {
				drop := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		total += n + joinCost()
		current = append(current, piece)
	}

	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}
