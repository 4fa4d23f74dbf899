package main

import (
	"strings"
	"testing"
)

func TestRenderTableUppercasesHeaderAndFooter(t *testing.T) {
	out := renderTable(tableLayout{
		Headers: []string{"Status", "Count"},
		Rows:    [][]string{{"Pending", "2"}, {"Done"}},
		Footer:  []string{"Total", "2"},
	})
	for _, want := range []string{"STATUS", "COUNT", "TOTAL", "Pending", "Done"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Status") || strings.Contains(out, "Total") {
		t.Fatalf("header and footer should be upper-cased:\n%s", out)
	}
}

func TestRenderTableWithoutHeadersIsEmpty(t *testing.T) {
	if out := renderTable(tableLayout{Rows: [][]string{{"x"}}}); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
