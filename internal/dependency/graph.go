// internal/dependency/graph.go
package dependency

import (
	"fmt"
	"strings"
)

// NodeID is the unique identifier for a node inside a dependency graph. For
// modapp it is the module name.
type NodeID string

// Node is a module together with the names it declared in its require list.
type Node struct {
	ID        NodeID
	DependsOn []NodeID
}

// Graph is a very small helper to answer dependency queries. It is *not*
// thread-safe by itself; the orchestrator only touches it under its own lock.
type Graph struct {
	nodes map[NodeID]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds (or replaces) a node in the graph.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	copied := Node{ID: n.ID, DependsOn: append([]NodeID(nil), n.DependsOn...)}
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// CycleError reports a chain of requires edges leading back into itself.
// Chain[0] is the node the check was rooted at and the last element requires
// the first.
type CycleError struct {
	Chain []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		parts[i] = string(id)
	}
	return fmt.Sprintf("dependency cycle: %s > %s", strings.Join(parts, " > "), parts[0])
}

// ChainFrom returns the chain rotated so that it starts at id, or nil if id
// is not part of it.
func (e *CycleError) ChainFrom(id NodeID) []NodeID {
	for i, n := range e.Chain {
		if n == id {
			rotated := make([]NodeID, 0, len(e.Chain))
			rotated = append(rotated, e.Chain[i:]...)
			return append(rotated, e.Chain[:i]...)
		}
	}
	return nil
}

// CheckCycle walks the requires edges depth-first starting at root. The walk
// only descends into nodes for which follow returns true; for the
// orchestrator those are the modules still waiting for their requirements.
// It fails with a *CycleError when the root is required again, or when a
// node already on the current chain is reached.
func (g *Graph) CheckCycle(root NodeID, follow func(NodeID) bool) error {
	chain := []NodeID{root}
	onChain := map[NodeID]bool{root: true}
	visited := map[NodeID]bool{root: true}

	var walk func(id NodeID) error
	walk = func(id NodeID) error {
		for _, dep := range g.Dependencies(id) {
			if onChain[dep] {
				return &CycleError{Chain: append([]NodeID(nil), chain...)}
			}
			if visited[dep] || g.nodes[dep] == nil || !follow(dep) {
				continue
			}
			visited[dep] = true
			chain = append(chain, dep)
			onChain[dep] = true
			if err := walk(dep); err != nil {
				return err
			}
			onChain[dep] = false
			chain = chain[:len(chain)-1]
		}
		return nil
	}

	return walk(root)
}
