// Package module defines the vocabulary shared by every part of modapp: the
// lifecycle states of a module, the record the orchestrator keeps per module
// name, the constructor contract, and the error taxonomy used to explain why
// a module is not loaded.
//
// A module moves through these states:
//
//	loading -> require -> ready
//	   |          |
//	   v          v
//	 unavailable, error, circularDependency, blocked, deactivated, passive
//
// Only a ready record exposes an instance. Every failure state carries an
// error whose type names the reason; use the IsX helpers to test for it.
package module
