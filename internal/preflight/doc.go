// Package preflight provides readiness checks for the filesystem paths a run
// depends on.
//
// `wikistream run` calls RunAll before opening the dump and refuses to start
// when any check fails, so a multi-hour extraction does not die at the first
// write. `wikistream preflight` prints the same results as a table.
package preflight
