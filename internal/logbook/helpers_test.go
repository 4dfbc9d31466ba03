package logbook

import (
	"io"
	"log/slog"
	"testing"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

func str(s string) *string { return &s }

func cell(row, col int, text string) Cell {
	return Cell{RowIndex: row, ColumnIndex: col, ColumnSpan: 1, Content: str(text)}
}

func spanCell(row, col, span int, text string) Cell {
	return Cell{RowIndex: row, ColumnIndex: col, ColumnSpan: span, Content: str(text)}
}

func emptyCell(row, col int) Cell {
	return Cell{RowIndex: row, ColumnIndex: col, ColumnSpan: 1}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconstructor(t *testing.T) *Reconstructor {
	t.Helper()
	return New(rules.Default(), WithLogger(quietLogger()))
}

func assertColumns(t *testing.T, label string, got, want map[int]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s = %v, want %v", label, got, want)
		return
	}
	for col, w := range want {
		if g, ok := got[col]; !ok || g != w {
			t.Errorf("%s[%d] = %q, want %q (full: %v)", label, col, g, w, got)
		}
	}
}
