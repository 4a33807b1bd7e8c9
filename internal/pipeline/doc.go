// Package pipeline runs the extract → filter → write → progress stages.
//
// Stages talk only through bounded Buffers and monotonic Flags:
//
//	extractor ──entries──▶ filter workers ──records──▶ writers ──ticks──▶ aggregator
//
// A Flag is set once and never cleared. ExtractionDone is set by the
// extractor at end of input, FilteringDone by the last filter worker to exit
// (via a Latch), WritingDone by the last writer. A consumer stops once the
// flag it watches is set and its input buffer is drained.
//
// Which flag writers watch is selectable. Interlock "workers" waits for
// FilteringDone. Interlock "extraction" watches ExtractionDone instead; a
// filter worker that is still busy when the entry buffer empties may then push
// a record after every writer has gone. Such records are counted as lost in
// the Summary and never reach a sink.
package pipeline
