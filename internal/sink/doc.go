// Package sink persists serialized records.
//
// A Sink receives complete newline-terminated lines from exactly one writer
// goroutine. FileSink buffers writes and holds an advisory lock on
// "<path>.lock" for as long as it is open, so two runs cannot write the same
// output file. With several sinks, OutputPaths derives one file name per
// sink from the configured base path. Memory is an in-process sink for tests.
package sink
