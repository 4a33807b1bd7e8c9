package testsupport

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Page describes one <page> element of a synthetic dump.
type Page struct {
	// ID is omitted from the markup when nil.
	ID         *int64
	Title      string
	Namespace  int
	Text       string
	RevisionID int64
	// PageText places <text> directly under <page> with no <revision>.
	PageText bool
}

// ID returns a pointer for Page.ID literals.
func ID(v int64) *int64 { return &v }

// DumpXML renders pages inside a minimal MediaWiki export envelope.
func DumpXML(pages ...Page) string {
	var b strings.Builder
	b.WriteString(`<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.11/" version="0.11" xml:lang="en">` + "\n")
	b.WriteString("  <siteinfo>\n    <sitename>Wikipedia</sitename>\n    <namespaces>\n")
	b.WriteString(`      <namespace key="0" case="first-letter" />` + "\n")
	b.WriteString("    </namespaces>\n  </siteinfo>\n")
	for _, p := range pages {
		b.WriteString("  <page>\n")
		fmt.Fprintf(&b, "    <title>%s</title>\n", escape(p.Title))
		fmt.Fprintf(&b, "    <ns>%d</ns>\n", p.Namespace)
		if p.ID != nil {
			fmt.Fprintf(&b, "    <id>%d</id>\n", *p.ID)
		}
		if p.PageText {
			fmt.Fprintf(&b, "    <text xml:space=\"preserve\">%s</text>\n", escape(p.Text))
			b.WriteString("  </page>\n")
			continue
		}
		b.WriteString("    <revision>\n")
		fmt.Fprintf(&b, "      <id>%d</id>\n", p.RevisionID)
		b.WriteString("      <contributor>\n        <username>Example</username>\n        <id>42</id>\n      </contributor>\n")
		fmt.Fprintf(&b, "      <text bytes=\"%d\" xml:space=\"preserve\">%s</text>\n", len(p.Text), escape(p.Text))
		b.WriteString("    </revision>\n")
		b.WriteString("  </page>\n")
	}
	b.WriteString("</mediawiki>\n")
	return b.String()
}

// WriteDump writes pages as plain XML to path.
func WriteDump(t testing.TB, path string, pages ...Page) {
	t.Helper()
	writeBytes(t, path, []byte(DumpXML(pages...)))
}

// WriteGzipDump writes pages gzip-compressed to path.
func WriteGzipDump(t testing.TB, path string, pages ...Page) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(DumpXML(pages...))); err != nil {
		t.Fatalf("gzip dump: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteZstdDump writes pages zstd-compressed to path.
func WriteZstdDump(t testing.TB, path string, pages ...Page) {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd encoder: %v", err)
	}
	defer enc.Close()
	writeBytes(t, path, enc.EncodeAll([]byte(DumpXML(pages...)), nil))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
