// Package tasks owns the named developer tasks and their dispatch.
//
// Ownership boundary:
// - task metadata and registry primitives
//
// - per-invocation execution context
//
// - built-in task bodies: clean, stats, pep8
package tasks
