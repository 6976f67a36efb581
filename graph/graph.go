// Package graph is a small typed state graph runtime: nodes transform a state
// value of type S, edges decide what runs next, and listeners observe every
// node execution. kgqa uses it to define the question-answering workflow once
// and run it either blocking or with streamed progress.
package graph

import (
	"context"
	"errors"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

// DefaultRecursionLimit bounds the number of node executions per Invoke.
const DefaultRecursionLimit = 25

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrFanOut is returned by Compile when a node has more than one static outgoing edge.
	ErrFanOut = errors.New("node has more than one outgoing edge")

	// ErrRecursionLimit is returned when a run exceeds its node execution budget.
	ErrRecursionLimit = errors.New("recursion limit reached")
)

// NodeFunc is the function run by a node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Node represents a node in the graph.
type Node[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the function associated with the node.
	Function NodeFunc[S]
}

// Edge represents an edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}
