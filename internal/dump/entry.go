package dump

// RawEntry is one page as read from the dump, before redirect filtering.
type RawEntry struct {
	// ID is the page's own identifier; nil when the page carried none.
	ID        *int64
	Title     string
	Namespace int
	Body      string
}

// Stats summarizes a single extraction pass.
type Stats struct {
	PagesSeen        int64
	PagesEmitted     int64
	SkippedNamespace int64
	BytesRead        int64
}
