package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"Site", "Players"},
		[][]string{{"200010", "2"}, {"200011"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	requireContains(t, out, "Site")
	requireContains(t, out, "200010")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 6 {
		t.Fatalf("expected 6 rendered lines, got %d:\n%s", len(lines), out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestStatusCellPlainWhenNotColorized(t *testing.T) {
	if got := statusCell("resolved", true, false); got != "resolved" {
		t.Fatalf("expected plain label, got %q", got)
	}
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("expected buffers not to be colorized")
	}
}
