// Package manifest describes module graphs declaratively.
//
// A manifest lists modules with their requirements and, optionally, the ways
// they fail. It is decoded with sigs.k8s.io/yaml, so YAML and JSON both work:
//
//	bundle: [login, screen]
//	modules:
//	  login:
//	    requires: [api, screen]
//	  screen: {}
//	  api:
//	    fetchDelay: 200ms
//	  legacy:
//	    fetchError: 404 Module not found
//
// A Catalog built from a manifest hands the orchestrator constructors for
// the bundle and a class callback for everything else, and records how often
// each module was constructed or fetched. The CLI uses it to drive the
// orchestrator without compiled-in modules.
package manifest
