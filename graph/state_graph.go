package graph

import (
	"context"
	"fmt"
	"strings"
)

// StateGraph represents a generic state-based graph with compile-time type safety.
// The type parameter S represents the state type, typically a struct or a pointer to one.
//
// Example usage:
//
//	g := graph.NewStateGraph[*MyState]()
//	g.AddNode("fetch", "Fetch data", fetch)
//	g.AddNode("answer", "Build answer", answer)
//	g.SetEntryPoint("fetch")
//	g.AddEdge("fetch", "answer")
//	g.AddEdge("answer", graph.END)
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// order keeps node names in insertion order for deterministic exports
	order []string

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// entryPoint is the name of the entry point node in the graph
	entryPoint string
}

// NewStateGraph creates a new instance of StateGraph with type safety.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes: make(map[string]Node[S]),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name string, description string, fn NodeFunc[S]) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// Compile validates the graph and returns a StateRunnable instance.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}

	outgoing := make(map[string]string)
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, e.To)
		}
		if prev, dup := outgoing[e.From]; dup {
			return nil, fmt.Errorf("%w: %s -> {%s, %s}", ErrFanOut, e.From, prev, e.To)
		}
		outgoing[e.From] = e.To
	}

	return &StateRunnable[S]{
		graph: g,
		next:  outgoing,
	}, nil
}

// StateRunnable represents a compiled state graph that can be invoked with type safety.
// A StateRunnable is immutable after configuration; the With* methods return copies,
// so one compiled graph can serve concurrent runs with different listeners.
type StateRunnable[S any] struct {
	graph     *StateGraph[S]
	next      map[string]string
	listeners []NodeListener[S]
	overrides map[string]NodeFunc[S]
}

func (r *StateRunnable[S]) clone() *StateRunnable[S] {
	c := *r
	c.listeners = append([]NodeListener[S](nil), r.listeners...)
	c.overrides = make(map[string]NodeFunc[S], len(r.overrides))
	for k, v := range r.overrides {
		c.overrides[k] = v
	}
	return &c
}

// WithListeners returns a copy of the runnable that also notifies the given listeners.
func (r *StateRunnable[S]) WithListeners(listeners ...NodeListener[S]) *StateRunnable[S] {
	c := r.clone()
	c.listeners = append(c.listeners, listeners...)
	return c
}

// WithNodeFunc returns a copy of the runnable in which the named node runs fn
// instead of its compiled function. Edges and listeners are unchanged.
func (r *StateRunnable[S]) WithNodeFunc(name string, fn NodeFunc[S]) (*StateRunnable[S], error) {
	if _, ok := r.graph.nodes[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	c := r.clone()
	c.overrides[name] = fn
	return c, nil
}

// Invoke executes the compiled state graph with the given input state and
// returns the final state. Node errors and panics abort the run.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState
	current := r.graph.entryPoint

	for steps := 0; current != END; steps++ {
		if steps >= DefaultRecursionLimit {
			return state, fmt.Errorf("%w: %d steps", ErrRecursionLimit, DefaultRecursionLimit)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}
		fn := node.Function
		if override, ok := r.overrides[current]; ok {
			fn = override
		}

		r.notify(ctx, NodeEventStart, current, state, nil)
		result, err := runNode(ctx, current, fn, state)
		if err != nil {
			r.notify(ctx, NodeEventError, current, state, err)
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}
		state = result
		r.notify(ctx, NodeEventComplete, current, state, nil)

		next, ok := r.next[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current)
		}
		current = next
	}

	return state, nil
}

func runNode[S any](ctx context.Context, name string, fn NodeFunc[S], state S) (result S, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = state
			err = fmt.Errorf("panic in node %s: %v", name, p)
		}
	}()
	return fn(ctx, state)
}

func (r *StateRunnable[S]) notify(ctx context.Context, event NodeEvent, node string, state S, err error) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event, node, state, err)
	}
}

// NodeNames returns node names in the order they were added.
func (r *StateRunnable[S]) NodeNames() []string {
	return append([]string(nil), r.graph.order...)
}

// DrawMermaid renders the graph as a Mermaid flowchart.
func (r *StateRunnable[S]) DrawMermaid() string {
	g := r.graph
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	sb.WriteString("    START([\"START\"])\n")
	for _, name := range g.order {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
	}
	sb.WriteString("    END([\"END\"])\n")
	fmt.Fprintf(&sb, "    START --> %s\n", g.entryPoint)
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", e.From, e.To)
	}
	return sb.String()
}
