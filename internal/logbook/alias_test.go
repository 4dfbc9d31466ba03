package logbook

import (
	"testing"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

func TestNormalizeHeader(t *testing.T) {
	r := rules.Default()

	tests := []struct {
		in   string
		want string
	}{
		{"multi- engine land", "MULTI-ENGINE LAND"},
		{"Single  Engine\nLand", "SINGLE-ENGINE LAND"},
		{"MULTI-ENGINE LAND", "MULTI-ENGINE LAND"},
		{"Nr. Inst. App.", "NR INST APP"},
		{"nr ldg.", "NR LDG"},
		{"Remarks", "Remarks"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.in, r); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeHeaderRow(t *testing.T) {
	header := Row{
		RowIndex: 3,
		IsHeader: true,
		ColumnData: map[int]string{
			0: "DATE",
			4: "engine land",
			2: "nr ldg.",
			7: "Engine Land",
		},
		ParentHeaders: map[int]string{4: "AIRCRAFT CATEGORY AND CLASS"},
	}

	got, ambiguous := NormalizeHeaderRow(header, rules.Default())

	if got.RowIndex != 0 || !got.IsHeader {
		t.Errorf("RowIndex/IsHeader = %d/%v, want 0/true", got.RowIndex, got.IsHeader)
	}
	assertColumns(t, "ColumnData", got.ColumnData, map[int]string{
		0: "DATE",
		2: "NR LDG",
		4: "SINGLE-ENGINE LAND",
		7: "SINGLE-ENGINE LAND",
	})
	assertColumns(t, "ParentHeaders", got.ParentHeaders, header.ParentHeaders)

	if len(ambiguous) != 2 || ambiguous[0] != 4 || ambiguous[1] != 7 {
		t.Errorf("ambiguous = %v, want [4 7]", ambiguous)
	}

	// Input untouched
	if header.ColumnData[2] != "nr ldg." {
		t.Errorf("input modified: %v", header.ColumnData)
	}
}
