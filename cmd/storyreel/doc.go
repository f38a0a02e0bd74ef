// Package main hosts the storyreel CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, then
// hands off to the internal packages: assemble runs the whole pipeline, while
// captions, align and plan expose the deterministic stages on stored
// artifacts so a run can be inspected or replayed without calling any
// external service. runs and cache manage the ledger and the footage cache.
package main
