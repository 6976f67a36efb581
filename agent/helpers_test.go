package agent

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// fakeSearch implements tools.Tool.
type fakeSearch struct {
	result string
	err    error
	calls  atomic.Int32
}

func (f *fakeSearch) Name() string        { return "fake_search" }
func (f *fakeSearch) Description() string { return "returns a canned result" }
func (f *fakeSearch) Call(ctx context.Context, input string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

// scriptedQA answers from a list, repeating the last entry.
type scriptedQA struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	queries []string
}

func (q *scriptedQA) Ask(ctx context.Context, query string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := len(q.queries)
	q.queries = append(q.queries, query)
	if i < len(q.errs) && q.errs[i] != nil {
		return "", q.errs[i]
	}
	if len(q.answers) == 0 {
		return "", nil
	}
	return q.answers[min(i, len(q.answers)-1)], nil
}

func isOptimizerPrompt(prompt string) bool {
	return strings.Contains(prompt, "优化查询：")
}

const goodGraphAnswer = "鄱阳湖位于江西省北部，是中国第一大淡水湖。"
