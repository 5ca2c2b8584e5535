package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]column{{title: "Type"}, {title: "Files", numeric: true}},
		[][]string{{"blog", "3"}, {"portfolio"}},
	)
	for _, want := range []string{"Type", "Files", "blog", "portfolio", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got < 5 {
		t.Errorf("table has %d lines:\n%s", got, out)
	}
}

func TestRenderTable_NoColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}); out != "" {
		t.Errorf("out = %q, want empty", out)
	}
}
