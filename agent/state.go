// Package agent answers questions with a fixed three-stage workflow: web
// search, knowledge-graph QA with one query rewrite, and LLM synthesis of
// both. Stage failures become data in the workflow state, so every run ends
// with an answer. Runs are blocking or streamed as server-sent events.
package agent

import (
	"errors"

	"github.com/google/uuid"

	"github.com/lakegraph/kgqa/oracle"
)

// FailureKind classifies a captured stage failure.
type FailureKind string

const (
	FailureNone             FailureKind = ""
	FailureOracle           FailureKind = "oracle"
	FailureGraphQuery       FailureKind = "graph_query"
	FailureSearch           FailureKind = "search"
	FailureStructuredOutput FailureKind = "structured_output"
)

// Outcome is the result of a stage. Value always holds the text passed
// downstream, which for a failure is a descriptive message or a fallback.
type Outcome struct {
	Value string
	Kind  FailureKind
	Err   error
}

// Failed reports whether the stage failed.
func (o Outcome) Failed() bool {
	return o.Kind != FailureNone
}

func (o Outcome) String() string {
	return o.Value
}

// classify picks the kind for an LLM error, defaulting to FailureOracle.
func classify(err error) FailureKind {
	if errors.Is(err, oracle.ErrStructuredOutput) {
		return FailureStructuredOutput
	}
	return FailureOracle
}

// Status of a step record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusFallback   Status = "fallback"
)

// StepRecord describes one executed stage. Records are never modified after
// they are appended.
type StepRecord struct {
	Step        int    `json:"step"`
	Name        string `json:"name"`
	Status      Status `json:"status"`
	Description string `json:"description"`
	Result      string `json:"result"`
	Icon        string `json:"icon"`
}

// WorkflowState is owned by a single run.
type WorkflowState struct {
	ID    string
	Query string
	// RewrittenQuery is set when the graph stage retried with an optimized query.
	RewrittenQuery string
	SearchResult   Outcome
	GraphResult    Outcome
	FinalAnswer    Outcome

	steps []StepRecord
}

// NewWorkflowState returns a fresh state for query.
func NewWorkflowState(query string) *WorkflowState {
	return &WorkflowState{ID: uuid.NewString(), Query: query}
}

func (s *WorkflowState) appendStep(r StepRecord) {
	s.steps = append(s.steps, r)
}

// Steps returns a copy of the step log in execution order.
func (s *WorkflowState) Steps() []StepRecord {
	return append([]StepRecord(nil), s.steps...)
}
