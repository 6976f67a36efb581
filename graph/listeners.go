package graph

import (
	"context"
	"time"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// NodeListener observes node executions. Listeners are called synchronously,
// in registration order, on the goroutine running the graph.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, nodeName string, state S, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	f(ctx, event, nodeName, state, err)
}

// StepTrace records one node execution; see Tracer.
type StepTrace struct {
	Node     string
	Event    NodeEvent
	Err      error
	Duration time.Duration
}

// Tracer is a NodeListener that records node timings. It is not safe for use
// by concurrent runs; create one per Invoke.
type Tracer[S any] struct {
	started map[string]time.Time
	Steps   []StepTrace
}

// NewTracer creates an empty tracer.
func NewTracer[S any]() *Tracer[S] {
	return &Tracer[S]{started: make(map[string]time.Time)}
}

// OnNodeEvent implements NodeListener.
func (t *Tracer[S]) OnNodeEvent(_ context.Context, event NodeEvent, nodeName string, _ S, err error) {
	if event == NodeEventStart {
		t.started[nodeName] = time.Now()
		return
	}
	var d time.Duration
	if start, ok := t.started[nodeName]; ok {
		d = time.Since(start)
	}
	t.Steps = append(t.Steps, StepTrace{Node: nodeName, Event: event, Err: err, Duration: d})
}
