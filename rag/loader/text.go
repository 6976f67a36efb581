// Package loader reads source documents for splitting.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Document is one loaded text.
type Document struct {
	ID      string
	Source  string
	Content string
}

// TextLoader loads a whole text file as one document. The path "-" reads
// from the loader's stdin.
type TextLoader struct {
	filePath string
	id       string
	stdin    io.Reader
}

// TextLoaderOption configures the TextLoader
type TextLoaderOption func(*TextLoader)

// WithDocumentID overrides the id derived from the file name.
func WithDocumentID(id string) TextLoaderOption {
	return func(l *TextLoader) {
		l.id = id
	}
}

// WithStdin sets the reader used for "-".
func WithStdin(r io.Reader) TextLoaderOption {
	return func(l *TextLoader) {
		l.stdin = r
	}
}

// NewTextLoader creates a new TextLoader
func NewTextLoader(filePath string, opts ...TextLoaderOption) *TextLoader {
	l := &TextLoader{filePath: filePath, stdin: os.Stdin}
	for _, opt := range opts {
		opt(l)
	}
	if l.id == "" {
		l.id = documentID(filePath)
	}
	return l
}

func documentID(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the file, dropping a UTF-8 byte order mark and normalizing line
// endings to "\n".
func (l *TextLoader) Load(ctx context.Context) (Document, error) {
	var (
		content []byte
		err     error
	)
	if l.filePath == "-" {
		content, err = io.ReadAll(l.stdin)
	} else {
		content, err = os.ReadFile(l.filePath)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", l.filePath, err)
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	content = bytes.TrimPrefix(content, utf8BOM)
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return Document{ID: l.id, Source: l.filePath, Content: text}, nil
}

// ChapterLoader loads a file and cuts it before every line matching the
// chapter pattern, such as the 卷 headings of a gazetteer. Text before the
// first heading becomes its own document.
type ChapterLoader struct {
	text    *TextLoader
	pattern *regexp.Regexp
}

// NewChapterLoader creates a ChapterLoader. pattern is matched against each
// trimmed line.
func NewChapterLoader(filePath, pattern string, opts ...TextLoaderOption) (*ChapterLoader, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid chapter pattern: %w", err)
	}
	return &ChapterLoader{text: NewTextLoader(filePath, opts...), pattern: re}, nil
}

// Load returns the chapters in order with ids "<doc>#<n>", n from 1. Blank
// chapters are dropped.
func (l *ChapterLoader) Load(ctx context.Context) ([]Document, error) {
	doc, err := l.text.Load(ctx)
	if err != nil {
		return nil, err
	}

	var (
		docs    []Document
		current strings.Builder
	)
	flush := func() {
		content := strings.TrimSpace(current.String())
		current.Reset()
		if content == "" {
			return
		}
		docs = append(docs, Document{
			ID:      fmt.Sprintf("%s#%d", doc.ID, len(docs)+1),
			Source:  doc.Source,
			Content: content,
		})
	}

	for _, line := range strings.Split(doc.Content, "\n") {
		if l.pattern.MatchString(strings.TrimSpace(line)) {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	return docs, nil
}
