// Package dependency keeps the requires edges between modules and answers
// the questions the orchestrator asks about them.
//
// # Core Concepts
//
// Graph: a directed graph where every node is a module name and every edge
// points from a module to one of the modules in its require list. Edges are
// added when a module enters the require state and never change for that
// resolution attempt.
//
// # Cycle Detection
//
// CheckCycle runs once per newly declared require list. It walks depth-first
// from the module that just entered require, descending only into modules
// that are themselves still in require; a ready or not yet reached module
// cannot be part of a construction cycle.
//
//	g := dependency.New()
//	g.AddNode(dependency.Node{ID: "ca", DependsOn: []dependency.NodeID{"cc"}})
//	g.AddNode(dependency.Node{ID: "cb", DependsOn: []dependency.NodeID{"ca"}})
//	g.AddNode(dependency.Node{ID: "cc", DependsOn: []dependency.NodeID{"cb"}})
//
//	err := g.CheckCycle("cc", inRequire)
//	// err.(*dependency.CycleError).Chain == [cc cb ca]
//
// # Thread Safety
//
// Graph is not safe for concurrent use. Callers synchronise access.
package dependency
