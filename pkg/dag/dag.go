// Package dag orders string-keyed nodes so that every node comes after the
// nodes it depends on. It is used to sequence dynamic variable refreshes and
// pack installation.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing ordering.
	CycleError struct {
		// Cycle lists the nodes on the cycle, starting and ending with the same node.
		Cycle []string
	}

	// Graph is a directed dependency graph. An edge from A to B means A
	// depends on B, so B is ordered first.
	Graph struct {
		deps    map[string][]string
		nodes   []string
		nodeSet map[string]bool
	}

	visitState int

	frame struct {
		node string
		next int
	}
)

const (
	unvisited visitState = iota
	visiting
	done
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		deps:    make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that "from" depends on "to". Both nodes are added if missing.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	for _, existing := range g.deps[from] {
		if existing == to {
			return
		}
	}
	g.deps[from] = append(g.deps[from], to)
}

// Has reports whether the node exists.
func (g *Graph) Has(name string) bool {
	return g.nodeSet[name]
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Dependencies returns the direct dependencies of a node in insertion order.
func (g *Graph) Dependencies(name string) []string {
	out := make([]string, len(g.deps[name]))
	copy(out, g.deps[name])
	return out
}

// Order returns all nodes with dependencies before dependents. Roots are
// visited in insertion order, so the result is deterministic.
func (g *Graph) Order() ([]string, error) {
	return g.order(g.nodes)
}

// OrderFrom returns the given roots and everything they transitively depend
// on, dependencies first.
func (g *Graph) OrderFrom(roots ...string) ([]string, error) {
	for _, r := range roots {
		if !g.nodeSet[r] {
			return nil, fmt.Errorf("unknown node %q", r)
		}
	}
	return g.order(roots)
}

func (g *Graph) order(roots []string) ([]string, error) {
	state := make(map[string]visitState, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	for _, root := range roots {
		if state[root] != unvisited {
			continue
		}

		stack := []frame{{node: root}}
		state[root] = visiting

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.node]

			if top.next >= len(deps) {
				state[top.node] = done
				result = append(result, top.node)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++

			switch state[dep] {
			case unvisited:
				state[dep] = visiting
				stack = append(stack, frame{node: dep})
			case visiting:
				return nil, &CycleError{Cycle: cyclePath(stack, dep)}
			}
		}
	}

	return result, nil
}

// cyclePath extracts the portion of the stack that loops back to dep.
func cyclePath(stack []frame, dep string) []string {
	start := 0
	for i, f := range stack {
		if f.node == dep {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.node)
	}
	return append(path, dep)
}
