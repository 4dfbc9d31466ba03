package logbook

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{" A\nB ", "A B"},
		{"Route of\r\n  Flight", "Route of Flight"},
		{"\t\n", ""},
		{"e\u0301", "\u00e9"},
	}

	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// ReorderTablesByDate
// ----------------------------------------------------------------------------

func TestReorderTablesByDate_MovesFirstDateSegment(t *testing.T) {
	segments := []Segment{
		{ColumnCount: 1, Cells: []Cell{cell(0, 0, "FROM")}},
		{ColumnCount: 2, Cells: []Cell{cell(0, 0, " date ")}},
		{ColumnCount: 3, Cells: []Cell{cell(0, 0, "DATE")}},
	}

	got := ReorderTablesByDate(segments)

	wantCounts := []int{2, 1, 3}
	if len(got) != len(wantCounts) {
		t.Fatalf("len = %d, want %d", len(got), len(wantCounts))
	}
	for i, w := range wantCounts {
		if got[i].ColumnCount != w {
			t.Errorf("got[%d].ColumnCount = %d, want %d", i, got[i].ColumnCount, w)
		}
	}

	// Input untouched
	if segments[0].ColumnCount != 1 || segments[1].ColumnCount != 2 {
		t.Error("input slice was modified")
	}
}

func TestReorderTablesByDate_NoDateKeepsOrder(t *testing.T) {
	segments := []Segment{
		{ColumnCount: 1, Cells: []Cell{cell(0, 0, "FROM")}},
		{ColumnCount: 2, Cells: []Cell{cell(0, 0, "DATED")}},
		{ColumnCount: 3, Cells: []Cell{{RowIndex: 0}}},
	}

	got := ReorderTablesByDate(segments)
	for i := range segments {
		if got[i].ColumnCount != segments[i].ColumnCount {
			t.Errorf("got[%d].ColumnCount = %d, want %d", i, got[i].ColumnCount, segments[i].ColumnCount)
		}
	}
}

func TestReorderTablesByDate_Empty(t *testing.T) {
	if got := ReorderTablesByDate(nil); len(got) != 0 {
		t.Errorf("ReorderTablesByDate(nil) = %v, want empty", got)
	}
}

// ----------------------------------------------------------------------------
// Boilerplate
// ----------------------------------------------------------------------------

func TestShouldSkipTable(t *testing.T) {
	certify := []Cell{cell(0, 0, "I certify that the statements made by me are true")}
	plain := []Cell{cell(0, 0, "DATE"), cell(1, 0, "3/4")}

	tests := []struct {
		name  string
		cells []Cell
		total int
		want  bool
	}{
		{"certification on two-segment page", certify, 2, false},
		{"certification on three-segment page", certify, 3, true},
		{"plain table", plain, 5, false},
		{"page totals", []Cell{cell(0, 0, "Page totals")}, 4, true},
		{"no cells", nil, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldSkipTable(tt.cells, tt.total); got != tt.want {
				t.Errorf("ShouldSkipTable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldSkipRow(t *testing.T) {
	tests := []struct {
		name  string
		cells []Cell
		want  bool
	}{
		{"totals", []Cell{cell(4, 0, "Totals this page"), cell(4, 1, "12.5")}, true},
		{"amount forwarded", []Cell{cell(5, 0, "amt. forwarded")}, true},
		{"split across lines", []Cell{cell(5, 0, "I certify\nthat")}, true},
		{"data row", []Cell{cell(1, 0, "3/4"), cell(1, 1, "KSFO")}, false},
		{"absent content", []Cell{emptyCell(1, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldSkipRow(tt.cells); got != tt.want {
				t.Errorf("ShouldSkipRow() = %v, want %v", got, tt.want)
			}
		})
	}
}
