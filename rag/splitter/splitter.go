// Package splitter cuts long classical-text documents into structurally
// coherent chunks. A deterministic recursive splitter produces overlapping
// coarse windows, an LLM splits each window along prose and verse
// boundaries, and the hierarchical splitter runs those calls with bounded
// concurrency and merges the results without duplicates.
package splitter

import "context"

// CoarseSplitter produces ordered, possibly overlapping windows of a text.
type CoarseSplitter interface {
	SplitText(text string) []string
}

// FineSplitter splits one window into structural chunks. An error means the
// window could not be split and should be kept as is.
type FineSplitter interface {
	TrySplit(ctx context.Context, text string) ([]string, error)
}
