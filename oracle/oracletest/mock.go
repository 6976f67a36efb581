// Package oracletest provides a scripted oracle.LLM for tests.
package oracletest

import (
	"context"
	"sync"

	"github.com/lakegraph/kgqa/oracle"
)

// Reply is one scripted answer. When Chunks is set, streaming delivers them in
// order and Text is ignored.
type Reply struct {
	Text   string
	Chunks []string
	Err    error
}

func (r Reply) text() string {
	if len(r.Chunks) == 0 {
		return r.Text
	}
	var s string
	for _, c := range r.Chunks {
		s += c
	}
	return s
}

// Mock answers calls from a queue of replies, or from Respond when it is set.
// It is safe for concurrent use.
type Mock struct {
	// Respond, when non-nil, is consulted instead of the queue.
	Respond func(ctx context.Context, prompt string) Reply

	// Default is returned once the queue is exhausted.
	Default Reply

	mu      sync.Mutex
	replies []Reply
	prompts []string
}

var _ oracle.LLM = (*Mock)(nil)

// New returns a mock that answers with replies in order.
func New(replies ...Reply) *Mock {
	return &Mock{replies: replies}
}

// Texts is shorthand for New with plain text replies.
func Texts(texts ...string) *Mock {
	replies := make([]Reply, len(texts))
	for i, t := range texts {
		replies[i] = Reply{Text: t}
	}
	return New(replies...)
}

// Prompts returns every prompt received so far.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Calls returns the number of calls received.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *Mock) next(ctx context.Context, prompt string) Reply {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	respond := m.Respond
	var r Reply
	if respond == nil {
		if len(m.replies) > 0 {
			r = m.replies[0]
			m.replies = m.replies[1:]
		} else {
			r = m.Default
		}
	}
	m.mu.Unlock()

	if respond != nil {
		r = respond(ctx, prompt)
	}
	return r
}

// Complete implements oracle.LLM.
func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	r := m.next(ctx, prompt)
	if r.Err != nil {
		return "", r.Err
	}
	return r.text(), nil
}

// CompleteStructured implements oracle.LLM by decoding the scripted text.
func (m *Mock) CompleteStructured(ctx context.Context, prompt, name string, out any) error {
	r := m.next(ctx, prompt)
	if r.Err != nil {
		return r.Err
	}
	def, err := oracle.Schema(out)
	if err != nil {
		return err
	}
	return oracle.Decode(r.text(), def, out)
}

// CompleteStream implements oracle.LLM.
func (m *Mock) CompleteStream(ctx context.Context, prompt string, fn oracle.StreamFunc) (string, error) {
	r := m.next(ctx, prompt)
	chunks := r.Chunks
	if len(chunks) == 0 && r.Text != "" {
		chunks = []string{r.Text}
	}
	var out string
	for _, c := range chunks {
		out += c
		if fn != nil {
			if err := fn(ctx, c); err != nil {
				return out, err
			}
		}
	}
	if r.Err != nil {
		return out, r.Err
	}
	return out, nil
}
