package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"TYPE", "ATTRIBUTES"}, true)
	table.AddRow("Component", "1")
	table.AddRow("Cached", "2")
	table.Render()

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "TYPE") {
		t.Errorf("header line: %q", lines[0])
	}
	if !strings.Contains(lines[2], "Component") || !strings.Contains(lines[3], "Cached") {
		t.Errorf("rows out of order:\n%s", out)
	}

	// Columns align on the widest cell.
	if idx1, idx2 := strings.Index(lines[2], "1"), strings.Index(lines[3], "2"); idx1 != idx2 {
		t.Errorf("column misaligned: %d vs %d\n%s", idx1, idx2, out)
	}
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, nil, true)
	table.AddRow("orphan")
	table.Render()
	if buf.Len() != 0 {
		t.Errorf("headerless table should render nothing, got %q", buf.String())
	}
}
