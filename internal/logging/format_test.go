package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestFormatValueDereferencesPointers(t *testing.T) {
	id := int64(42)
	if got := formatValue(slog.AnyValue(&id)); got != "42" {
		t.Fatalf("expected pointer to be dereferenced, got %q", got)
	}
	var missing *int64
	if got := formatValue(slog.AnyValue(missing)); got != "<nil>" {
		t.Fatalf("expected <nil> for nil pointer, got %q", got)
	}
}

func TestFormatValueQuotesAndTruncates(t *testing.T) {
	if got := formatValue(slog.StringValue("two words")); got != `"two words"` {
		t.Fatalf("expected quoted value, got %q", got)
	}
	if got := formatValue(slog.AnyValue(errors.New("boom"))); got != "boom" {
		t.Fatalf("unexpected error rendering %q", got)
	}
	long := strings.Repeat("x", maxValueRunes+50)
	got := formatValue(slog.StringValue(long))
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != maxValueRunes+1 {
		t.Fatalf("expected truncated value, got %d runes", len([]rune(got)))
	}
}

func TestAttrStringLeavesStringsUnquoted(t *testing.T) {
	if got := attrString(slog.StringValue("filter worker")); got != "filter worker" {
		t.Fatalf("unexpected attrString %q", got)
	}
}
