package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{{title: "Sink"}, {title: "Written", numeric: true}, {title: "Status"}}, [][]string{
		{"pages_0.json", "12"},
		{"pages_1.json", "7", "write failed"},
	})
	for _, want := range []string{"Sink", "Written", "pages_0.json", "write failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got < 4 {
		t.Fatalf("expected header and two rows, got:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestRenderKeyValues(t *testing.T) {
	out := renderKeyValues([][2]string{{"Written", "1,024"}, {"Lost", "0"}})
	if !strings.Contains(out, "Written") || !strings.Contains(out, "1,024") {
		t.Fatalf("unexpected key/value table:\n%s", out)
	}
}
