// Package provider resolves module names to constructors.
//
// Constructors come from two places: bundles registered up front with
// Register, and an optional ClassFunc that fetches unknown classes on
// demand. Both end up in the same cache. Concurrent fetches for one name
// share a single callback invocation.
package provider
