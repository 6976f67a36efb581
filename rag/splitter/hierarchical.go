package splitter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lakegraph/kgqa/log"
)

// DefaultMaxConcurrency bounds in-flight fine splits when none is configured.
const DefaultMaxConcurrency = 5

// Chunk is one entry of the merged result.
type Chunk struct {
	Content string
	// CoarseIndex is the window the chunk first came from.
	CoarseIndex int
	// Verbatim marks a coarse window kept whole because its fine split failed.
	Verbatim bool
}

// Result is the ordered, duplicate-free output of a hierarchical split.
type Result struct {
	Chunks      []Chunk
	CoarseCount int
	// Failed lists the coarse windows whose fine split failed.
	Failed   []int
	Warnings []string
}

// Texts returns the chunk contents in order.
func (r *Result) Texts() []string {
	out := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		out[i] = c.Content
	}
	return out
}

// slot holds the outcome of one fine split.
type slot struct {
	chunks []string
	err    error
}

// HierarchicalSplitter runs a coarse split, fans the windows out to a fine
// splitter with bounded concurrency and merges the outcomes in window order.
type HierarchicalSplitter struct {
	coarse         CoarseSplitter
	fine           FineSplitter
	maxConcurrency int
}

// HierarchicalOption configures a HierarchicalSplitter.
type HierarchicalOption func(*HierarchicalSplitter)

// WithMaxConcurrency caps simultaneous fine splits. Values below 1 are ignored.
func WithMaxConcurrency(n int) HierarchicalOption {
	return func(h *HierarchicalSplitter) {
		if n > 0 {
			h.maxConcurrency = n
		}
	}
}

// NewHierarchicalSplitter creates a HierarchicalSplitter.
func NewHierarchicalSplitter(coarse CoarseSplitter, fine FineSplitter, opts ...HierarchicalOption) *HierarchicalSplitter {
	h := &HierarchicalSplitter{coarse: coarse, fine: fine, maxConcurrency: DefaultMaxConcurrency}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Split runs the three phases. The only error is a context cancelled before
// the fine phase starts; fine split failures are reported in the result.
func (h *HierarchicalSplitter) Split(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	windows := h.coarse.SplitText(text)
	log.Info("coarse split produced %d windows", len(windows))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slots := h.fineSplit(ctx, windows)
	log.Info("fine split of %d windows finished in %s (max concurrency %d)", len(windows), time.Since(start), h.maxConcurrency)

	res := merge(windows, slots)
	log.Info("merged %d chunks, %d windows kept verbatim", len(res.Chunks), len(res.Failed))
	return res, nil
}

// SplitText returns only the merged chunk contents.
func (h *HierarchicalSplitter) SplitText(ctx context.Context, text string) []string {
	res, err := h.Split(ctx, text)
	if err != nil {
		log.Warn("hierarchical split aborted: %v", err)
		return nil
	}
	return res.Texts()
}

// fineSplit writes each outcome to its own slot. Workers never return an
// error to the group, so one failure does not cancel its siblings.
func (h *HierarchicalSplitter) fineSplit(ctx context.Context, windows []string) []slot {
	slots := make([]slot, len(windows))

	var g errgroup.Group
	g.SetLimit(h.maxConcurrency)
	for i, window := range windows {
		g.Go(func() error {
			chunks, err := h.callFine(ctx, window)
			slots[i] = slot{chunks: chunks, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return slots
}

func (h *HierarchicalSplitter) callFine(ctx context.Context, window string) (chunks []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fine splitter panic: %v", p)
		}
	}()
	return h.fine.TrySplit(ctx, window)
}

// merge runs single-threaded after every slot is filled.
func merge(windows []string, slots []slot) *Result {
	res := &Result{CoarseCount: len(windows)}
	seen := make(map[string]struct{})
	add := func(content string, index int, verbatim bool) {
		if _, dup := seen[content]; dup {
			return
		}
		seen[content] = struct{}{}
		res.Chunks = append(res.Chunks, Chunk{Content: content, CoarseIndex: index, Verbatim: verbatim})
	}

	for i, s := range slots {
		switch {
		case s.err != nil:
			warning := fmt.Sprintf("window %d failed, kept verbatim: %v", i+1, s.err)
			log.Warn("%s", warning)
			res.Warnings = append(res.Warnings, warning)
			res.Failed = append(res.Failed, i)
			add(windows[i], i, true)
		case s.chunks != nil:
			for _, c := range s.chunks {
				if c = strings.TrimSpace(c); c != "" {
					add(c, i, false)
				}
			}
		default:
			warning := fmt.Sprintf("window %d returned no result", i+1)
			log.Warn("%s", warning)
			res.Warnings = append(res.Warnings, warning)
		}
	}
	return res
}
