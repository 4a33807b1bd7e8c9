// Package main hosts the wikistream CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration, runs preflight checks,
// drives the extraction pipeline and reports progress on stderr. Run history
// lives in a SQLite ledger under the state directory and is shown by
// `wikistream runs`.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through commands or flags here.
package main
