// Package tools runs external commands on behalf of tasks.
//
// Ownership boundary:
// - argument-vector commands and pipelines
//
// - host execution with optional console mirroring
//
// - step failure policy and exit-code mapping
package tools
