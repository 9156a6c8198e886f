// Package workflow provides a small generic state-machine used by the
// coordinator: named nodes over a shared state, unconditional and
// conditional edges, a single entry point, and an End sentinel.
package workflow

import (
	"context"
	"fmt"
)

// End terminates execution when reached as a transition target.
const End = "__END__"

// NodeFunc runs one node against the shared state. The state value is
// threaded through every node; nodes mutate it via the coordinator's
// merge discipline and return it.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc decides the next node name from the current state.
type RouterFunc[S any] func(state S) string

type edgeConfig[S any] struct {
	conditional bool
	toNode      string
	router      RouterFunc[S]
	targets     map[string]string
}

type Graph[S any] struct {
	nodes      map[string]NodeFunc[S]
	edges      map[string]edgeConfig[S]
	entryPoint string
}

func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]edgeConfig[S]),
	}
}

func (graph *Graph[S]) AddNode(name string, fn NodeFunc[S]) {
	graph.nodes[name] = fn
}

func (graph *Graph[S]) SetEntryPoint(name string) {
	graph.entryPoint = name
}

func (graph *Graph[S]) AddEdge(fromNode, toNode string) {
	graph.edges[fromNode] = edgeConfig[S]{toNode: toNode}
}

// AddConditionalEdges routes fromNode through router; the router's
// decision is looked up in targets to find the next node.
func (graph *Graph[S]) AddConditionalEdges(fromNode string, router RouterFunc[S], targets map[string]string) {
	graph.edges[fromNode] = edgeConfig[S]{
		conditional: true,
		router:      router,
		targets:     targets,
	}
}

// Execute walks the graph from the entry point until End. A node error
// aborts execution and is returned wrapped with the node name: node
// functions capture agent-level failures themselves and return an error
// only to stop the run. The iteration bound guards against a miswired
// cycle.
func (graph *Graph[S]) Execute(ctx context.Context, initialState S, maxIterations int) (S, error) {
	state := initialState
	current := graph.entryPoint

	if _, ok := graph.nodes[current]; !ok {
		return state, fmt.Errorf("entry point node %q not found", current)
	}

	for i := 0; i < maxIterations; i++ {
		if current == End {
			return state, nil
		}

		nodeFunc, ok := graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("node %q not found in graph", current)
		}

		var err error
		state, err = nodeFunc(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}

		edge, ok := graph.edges[current]
		if !ok {
			return state, nil
		}

		if edge.conditional {
			decision := edge.router(state)
			next, ok := edge.targets[decision]
			if !ok {
				return state, fmt.Errorf("conditional edge from %q has no target for decision %q", current, decision)
			}
			current = next
		} else {
			current = edge.toNode
		}
	}

	return state, fmt.Errorf("workflow exceeded %d iterations without reaching end", maxIterations)
}
