package logbook

import (
	"testing"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

func TestCorrector_Integer(t *testing.T) {
	c := NewCorrector(rules.Default())

	tests := []struct {
		in   string
		want string
	}{
		{"O5", "05"},
		{"05", "05"},
		{"", "0"},
		{"l2", "12"},
		{"1.5", "15"},
		{"S", "5"},
		{"|I", "11"},
		{"x", "0"},
		{" 1 , 2 ", "12"},
	}

	for _, tt := range tests {
		if got := c.Integer(tt.in); got != tt.want {
			t.Errorf("Integer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCorrector_AirportCode(t *testing.T) {
	c := NewCorrector(rules.Default())

	tests := []struct {
		in   string
		want string
	}{
		{"ksfo", "KSFO"},
		{"0AX", "OAX"},
		{"K5F0", "KSFO"},
		{"LAX", "LAX"},
		{"K-SFO1", "KSFO"},
		{"k.s.f", "KSF"},
		{"--", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := c.AirportCode(tt.in); got != tt.want {
			t.Errorf("AirportCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCorrector_ApplyLeavesOtherTypes(t *testing.T) {
	c := NewCorrector(rules.Default())

	for _, typ := range []rules.ColumnType{rules.TypeString, rules.TypeDate} {
		if got := c.Apply(typ, "O5 l"); got != "O5 l" {
			t.Errorf("Apply(%v) = %q, want unchanged", typ, got)
		}
	}
}

func TestCorrector_CustomTables(t *testing.T) {
	r, err := rules.Parse([]byte(`
numeric_substitutions:
  - {from: "#", to: "4"}
airport_substitutions:
  - {from: "7", to: "T"}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	c := NewCorrector(r)

	if got := c.Integer("#O"); got != "4" {
		t.Errorf("Integer(#O) = %q, want %q", got, "4")
	}
	if got := c.AirportCode("7EB"); got != "TEB" {
		t.Errorf("AirportCode(7EB) = %q, want %q", got, "TEB")
	}
}

func TestInferColumnTypes(t *testing.T) {
	header := Row{
		IsHeader: true,
		ColumnData: map[int]string{
			0:  "DATE",
			1:  "From",
			2:  "TO",
			3:  "NR INST APP",
			4:  "TOTAL DURATION OF FLIGHT",
			5:  "Remarks",
			6:  "Night LDG",
			7:  "Unknown",
			8:  "DAY LDG (FULL STOP)",
			9:  "TO AIRPORT",
			10: "night ldg",
			11: "day ldg (full stop)",
		},
	}

	want := map[int]rules.ColumnType{
		0:  rules.TypeDate,
		1:  rules.TypeAirportCode,
		2:  rules.TypeAirportCode,
		3:  rules.TypeInteger,
		4:  rules.TypeString,
		5:  rules.TypeString,
		6:  rules.TypeInteger,
		7:  rules.TypeString,
		8:  rules.TypeInteger,
		9:  rules.TypeAirportCode,
		10: rules.TypeInteger,
		11: rules.TypeInteger,
	}

	got := InferColumnTypes(header, rules.Default())
	for col, w := range want {
		if got[col] != w {
			t.Errorf("type[%d] (%q) = %v, want %v", col, header.ColumnData[col], got[col], w)
		}
	}
}

func TestCorrectRow(t *testing.T) {
	c := NewCorrector(rules.Default())
	types := map[int]rules.ColumnType{
		0: rules.TypeInteger,
		1: rules.TypeAirportCode,
		2: rules.TypeString,
	}
	row := Row{RowIndex: 1, ColumnData: map[int]string{
		0: "O5",
		1: "--",
		2: "x",
		9: "ks",
	}}

	c.correctRow(row, types)

	assertColumns(t, "ColumnData", row.ColumnData, map[int]string{
		0: "05",
		2: "x",
		9: "ks",
	})
}
