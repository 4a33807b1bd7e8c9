// Package dump streams page entries out of a MediaWiki XML export.
//
// Open selects the decoder for the compressed byte source (bzip2, gzip, zstd
// or plain XML). Extractor walks the token stream with an explicit element
// path tracker instead of building a tree, so memory is bounded by nesting
// depth and the size of one page. Every page in the target namespace is handed
// to the caller as a RawEntry the moment its closing tag is read; nothing is
// retained afterwards.
//
// Malformed markup or a non-numeric namespace/id is fatal: the tracker cannot
// resynchronize mid-stream, so the whole run stops with ErrMalformedInput.
// An empty namespace or id element is not an error; the page keeps the
// default.
package dump
