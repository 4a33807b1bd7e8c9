package dump

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	elemPage     = "page"
	elemRevision = "revision"
	elemTitle    = "title"
	elemNS       = "ns"
	elemID       = "id"
	elemText     = "text"
)

// fieldKind identifies which accumulator the current leaf feeds.
type fieldKind int

const (
	fieldNone fieldKind = iota
	fieldTitle
	fieldNamespace
	fieldPageID
	fieldBody
)

// tracker is the element-path state machine. It only knows the tag vocabulary
// needed to build a RawEntry; everything else is pushed and popped untouched.
type tracker struct {
	stack          []string
	inPage         bool
	insideRevision bool
	capture        fieldKind

	leaf  strings.Builder
	body  strings.Builder
	title string
	ns    int
	id    *int64
}

func newTracker() *tracker {
	return &tracker{stack: make([]string, 0, 8)}
}

func (t *tracker) parent() string {
	if len(t.stack) == 0 {
		return ""
	}
	return t.stack[len(t.stack)-1]
}

// Start records an opening tag.
func (t *tracker) Start(name string) {
	parent := t.parent()
	t.stack = append(t.stack, name)

	if name == elemPage {
		t.reset()
		t.inPage = true
		return
	}
	if !t.inPage {
		return
	}

	switch {
	case name == elemRevision:
		t.insideRevision = true
	case name == elemTitle && parent == elemPage:
		t.begin(fieldTitle)
	case name == elemNS && parent == elemPage:
		t.begin(fieldNamespace)
	case name == elemID && parent == elemPage && !t.insideRevision:
		t.begin(fieldPageID)
	case name == elemText:
		t.capture = fieldBody
	}
}

// CharData appends text for the leaf being captured. Body text goes straight
// into the body accumulator so split chunks concatenate in order.
func (t *tracker) CharData(data []byte) {
	switch t.capture {
	case fieldNone:
	case fieldBody:
		t.body.Write(data)
	default:
		t.leaf.Write(data)
	}
}

// End records a closing tag. It reports whether a complete page just closed.
func (t *tracker) End(name string) (bool, error) {
	if len(t.stack) > 0 {
		t.stack = t.stack[:len(t.stack)-1]
	}
	if !t.inPage {
		return false, nil
	}

	switch name {
	case elemPage:
		t.inPage = false
		t.capture = fieldNone
		return true, nil
	case elemRevision:
		t.insideRevision = false
		return false, nil
	}

	if t.capture == fieldNone || !t.closes(name) {
		return false, nil
	}
	kind := t.capture
	t.capture = fieldNone
	value := t.leaf.String()
	t.leaf.Reset()
	number := strings.TrimSpace(value)

	switch kind {
	case fieldTitle:
		t.title = value
	case fieldNamespace:
		// An empty leaf keeps the page default.
		if number == "" {
			break
		}
		ns, err := strconv.Atoi(number)
		if err != nil {
			return false, fmt.Errorf("%w: namespace %q is not an integer", ErrMalformedInput, value)
		}
		t.ns = ns
	case fieldPageID:
		if number == "" {
			break
		}
		id, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: page id %q is not an integer", ErrMalformedInput, value)
		}
		t.id = &id
	}
	return false, nil
}

// Entry returns the page assembled since the last Start("page").
func (t *tracker) Entry() RawEntry {
	return RawEntry{ID: t.id, Title: t.title, Namespace: t.ns, Body: t.body.String()}
}

func (t *tracker) begin(kind fieldKind) {
	t.capture = kind
	t.leaf.Reset()
}

func (t *tracker) closes(name string) bool {
	switch t.capture {
	case fieldTitle:
		return name == elemTitle
	case fieldNamespace:
		return name == elemNS
	case fieldPageID:
		return name == elemID
	case fieldBody:
		return name == elemText
	}
	return false
}

func (t *tracker) reset() {
	t.insideRevision = false
	t.capture = fieldNone
	t.leaf.Reset()
	t.body.Reset()
	t.title = ""
	t.ns = 0
	t.id = nil
}
