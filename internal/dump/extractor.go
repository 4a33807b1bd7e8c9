package dump

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"wikistream/internal/logging"
)

// ErrMalformedInput marks an unrecoverable problem with the byte stream: broken
// markup, a truncated document, or a namespace/id that is not an integer.
var ErrMalformedInput = errors.New("malformed dump input")

// EmitFunc receives each page in the target namespace. It may block; a
// returned error stops extraction and is passed back unchanged.
type EmitFunc func(ctx context.Context, entry RawEntry) error

// Extractor walks a dump token by token and emits pages of one namespace.
type Extractor struct {
	namespace int
	logger    *slog.Logger
}

// NewExtractor builds an extractor that keeps pages whose ns equals namespace.
func NewExtractor(namespace int, logger *slog.Logger) *Extractor {
	return &Extractor{
		namespace: namespace,
		logger:    logging.NewComponentLogger(logger, "extractor"),
	}
}

// Namespace reports the target namespace.
func (e *Extractor) Namespace() int { return e.namespace }

// Extract consumes r until EOF. Each matching page is passed to emit as soon
// as its closing tag is read.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, emit EmitFunc) (Stats, error) {
	var stats Stats
	if r == nil {
		return stats, fmt.Errorf("%w: nil reader", ErrMalformedInput)
	}
	if emit == nil {
		return stats, errors.New("extract: emit function required")
	}

	counter := &countingReader{r: r}
	decoder := xml.NewDecoder(counter)
	state := newTracker()

	for {
		if err := ctx.Err(); err != nil {
			stats.BytesRead = counter.n
			return stats, err
		}
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.BytesRead = counter.n
			return stats, fmt.Errorf("%w: at offset %d: %v", ErrMalformedInput, decoder.InputOffset(), err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			state.Start(tok.Name.Local)
		case xml.CharData:
			state.CharData(tok)
		case xml.EndElement:
			closed, err := state.End(tok.Name.Local)
			if err != nil {
				stats.BytesRead = counter.n
				return stats, fmt.Errorf("%w (offset %d)", err, decoder.InputOffset())
			}
			if !closed {
				continue
			}
			stats.PagesSeen++
			entry := state.Entry()
			if entry.Namespace != e.namespace {
				stats.SkippedNamespace++
				continue
			}
			if err := emit(ctx, entry); err != nil {
				stats.BytesRead = counter.n
				return stats, err
			}
			stats.PagesEmitted++
		}
	}

	stats.BytesRead = counter.n
	e.logger.Debug("dump exhausted",
		logging.Int64("pages_seen", stats.PagesSeen),
		logging.Int64("pages_emitted", stats.PagesEmitted),
		logging.Int64("skipped_namespace", stats.SkippedNamespace),
	)
	return stats, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
