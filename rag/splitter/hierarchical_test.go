package splitter

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lakegraph/kgqa/oracle/oracletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCoarse returns preset windows.
type fixedCoarse []string

func (f fixedCoarse) SplitText(string) []string {
	return f
}

// fineFunc adapts a function to FineSplitter.
type fineFunc func(ctx context.Context, text string) ([]string, error)

func (f fineFunc) TrySplit(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

func scripted(outcomes map[string][]string) fineFunc {
	return func(ctx context.Context, text string) ([]string, error) {
		chunks, ok := outcomes[text]
		if !ok {
			return nil, errors.New("rate limited")
		}
		return chunks, nil
	}
}

func TestHierarchicalSplitter_FailedWindowKeptVerbatim(t *testing.T) {
	windows := fixedCoarse{"window one", "window two", "window three"}
	fine := scripted(map[string][]string{
		"window one":   {"A1", "A2"},
		"window three": {"C1", "C2"},
	})

	res, err := NewHierarchicalSplitter(windows, fine).Split(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "window two", "C1", "C2"}, res.Texts())
	assert.Equal(t, []int{1}, res.Failed)
	assert.Equal(t, 3, res.CoarseCount)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "rate limited")

	verbatim := res.Chunks[2]
	assert.True(t, verbatim.Verbatim)
	assert.Equal(t, 1, verbatim.CoarseIndex)
	assert.Equal(t, 2, res.Chunks[3].CoarseIndex)
}

func TestHierarchicalSplitter_DedupIsGlobal(t *testing.T) {
	windows := fixedCoarse{"window one", "window two", "window three"}
	fine := scripted(map[string][]string{
		"window one":   {"A1", "window two"},
		"window three": {"window two", " A1 ", "C1", ""},
	})

	res, err := NewHierarchicalSplitter(windows, fine).Split(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "window two", "C1"}, res.Texts())
	assert.False(t, res.Chunks[1].Verbatim, "first occurrence wins")
	assert.Equal(t, []int{1}, res.Failed)
}

func TestHierarchicalSplitter_OrderFollowsWindows(t *testing.T) {
	windows := fixedCoarse{"w0", "w1", "w2", "w3"}
	fine := fineFunc(func(ctx context.Context, text string) ([]string, error) {
		// earlier windows finish last
		delay := map[string]time.Duration{"w0": 40, "w1": 30, "w2": 20, "w3": 0}[text]
		time.Sleep(delay * time.Millisecond)
		return []string{text + "-a", text + "-b"}, nil
	})

	got := NewHierarchicalSplitter(windows, fine, WithMaxConcurrency(4)).SplitText(context.Background(), "doc")
	assert.Equal(t, []string{"w0-a", "w0-b", "w1-a", "w1-b", "w2-a", "w2-b", "w3-a", "w3-b"}, got)
}

func TestHierarchicalSplitter_ConcurrencyBound(t *testing.T) {
	windows := make(fixedCoarse, 10)
	for i := range windows {
		windows[i] = "window " + string(rune('A'+i))
	}

	var inFlight, peak atomic.Int32
	llm := &oracletest.Mock{
		Respond: func(ctx context.Context, prompt string) oracletest.Reply {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(15 * time.Millisecond)
			inFlight.Add(-1)

			start := strings.Index(prompt, "window ")
			return oracletest.Reply{Text: `{"chunks":[{"content":"` + prompt[start:start+8] + `"}]}`}
		},
	}

	h := NewHierarchicalSplitter(windows, NewStructuralSplitter(llm), WithMaxConcurrency(2))
	res, err := h.Split(context.Background(), "doc")
	require.NoError(t, err)

	assert.Equal(t, 10, llm.Calls())
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, []string(windows), res.Texts())
	assert.Empty(t, res.Failed)
}

func TestHierarchicalSplitter_PoemAcrossOverlappingWindows(t *testing.T) {
	// both windows contain the whole poem
	first := gazetteerProse + "\n" + poem
	second := poem + "\n君山在洞庭湖中。"
	llm := &oracletest.Mock{
		Respond: func(ctx context.Context, prompt string) oracletest.Reply {
			if strings.Contains(prompt, gazetteerProse) {
				return oracletest.Reply{Text: chunksJSON(t, gazetteerProse, poem)}
			}
			return oracletest.Reply{Text: chunksJSON(t, poem, "君山在洞庭湖中。")}
		},
	}

	h := NewHierarchicalSplitter(fixedCoarse{first, second}, NewStructuralSplitter(llm))
	got := h.SplitText(context.Background(), "doc")
	assert.Equal(t, []string{gazetteerProse, poem, "君山在洞庭湖中。"}, got)
	assert.True(t, strings.HasPrefix(got[1], "望洞庭\n刘禹锡\n"))
}

func TestHierarchicalSplitter_IsolatedFailures(t *testing.T) {
	windows := fixedCoarse{"ok", "panic", "nothing", "ok2"}
	fine := fineFunc(func(ctx context.Context, text string) ([]string, error) {
		switch text {
		case "panic":
			panic("decoder bug")
		case "nothing":
			return nil, nil
		}
		return []string{strings.ToUpper(text)}, nil
	})

	res, err := NewHierarchicalSplitter(windows, fine).Split(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"OK", "panic", "OK2"}, res.Texts())
	assert.Equal(t, []int{1}, res.Failed)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "decoder bug")
	assert.Contains(t, res.Warnings[1], "no result")
}

func TestHierarchicalSplitter_CancelledBeforeFinePhase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	fine := fineFunc(func(ctx context.Context, text string) ([]string, error) {
		calls++
		return []string{text}, nil
	})

	_, err := NewHierarchicalSplitter(fixedCoarse{"a"}, fine).Split(ctx, "doc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
	assert.Nil(t, NewHierarchicalSplitter(fixedCoarse{"a"}, fine).SplitText(ctx, "doc"))
}

func TestHierarchicalSplitter_Defaults(t *testing.T) {
	h := NewHierarchicalSplitter(fixedCoarse{}, fineFunc(nil), WithMaxConcurrency(0))
	assert.Equal(t, DefaultMaxConcurrency, h.maxConcurrency)

	res, err := h.Split(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
}

func TestHierarchicalSplitter_EmptyOutcomeSkipped(t *testing.T) {
	windows := fixedCoarse{"first", "second"}
	fine := fineFunc(func(ctx context.Context, text string) ([]string, error) {
		if text == "first" {
			return nil, nil
		}
		return []string{"S1"}, nil
	})

	res, err := NewHierarchicalSplitter(windows, fine).Split(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, res.Texts())
	assert.Empty(t, res.Failed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "window 1 returned no result")
}
