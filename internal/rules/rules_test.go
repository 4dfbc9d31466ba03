package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// ----------------------------------------------------------------------------
// Default rules
// ----------------------------------------------------------------------------

func TestDefault_Loads(t *testing.T) {
	r := Default()

	if r.MaxHeaderRows() != 2 {
		t.Errorf("MaxHeaderRows() = %d, want 2", r.MaxHeaderRows())
	}
	if len(r.Fields()) == 0 {
		t.Fatal("Fields() is empty")
	}
	if len(r.NumericSubstitutions()) == 0 || len(r.AirportSubstitutions()) == 0 {
		t.Fatal("substitution tables are empty")
	}

	fields := r.Fields()
	if fields[0].Field != "DATE" || fields[0].Type != TypeDate {
		t.Errorf("Fields()[0] = %+v, want DATE/DATE", fields[0])
	}
}

func TestDefault_EngineLandIsFlaggedAmbiguous(t *testing.T) {
	a, ok := Default().LookupAlias("engine land")
	if !ok {
		t.Fatal("LookupAlias(engine land) not found")
	}
	if a.Canonical != "SINGLE-ENGINE LAND" {
		t.Errorf("Canonical = %q, want SINGLE-ENGINE LAND", a.Canonical)
	}
	if !a.Ambiguous {
		t.Error("engine land alias should be marked ambiguous")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	r := Default()

	fields := r.Fields()
	fields[0].Field = "MUTATED"
	if r.Fields()[0].Field != "DATE" {
		t.Error("mutating Fields() result changed the rules")
	}

	subs := r.NumericSubstitutions()
	subs[0].To = "X"
	if r.NumericSubstitutions()[0].To == "X" {
		t.Error("mutating NumericSubstitutions() result changed the rules")
	}
}

// ----------------------------------------------------------------------------
// Parse
// ----------------------------------------------------------------------------

func TestParse_Minimal(t *testing.T) {
	r, err := Parse([]byte(`
fields:
  - {field: FROM, type: airport_code}
  - {field: NR LDG, type: INTEGER}
numeric_substitutions:
  - {from: "O", to: "0"}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	fields := r.Fields()
	if len(fields) != 2 {
		t.Fatalf("len(Fields()) = %d, want 2", len(fields))
	}
	if fields[0].Type != TypeAirportCode {
		t.Errorf("FROM type = %v, want AIRPORT_CODE", fields[0].Type)
	}
	if fields[1].Type != TypeInteger {
		t.Errorf("NR LDG type = %v, want INTEGER", fields[1].Type)
	}
	if r.MaxHeaderRows() != DefaultMaxHeaderRows {
		t.Errorf("MaxHeaderRows() = %d, want default %d", r.MaxHeaderRows(), DefaultMaxHeaderRows)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	r, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if len(r.Fields()) != 0 {
		t.Errorf("Fields() = %v, want empty", r.Fields())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "unknown type",
			input:   "fields:\n  - {field: DATE, type: TIMESTAMP}\n",
			wantErr: "unknown column type",
		},
		{
			name:    "unknown key",
			input:   "feilds: []\n",
			wantErr: "feilds",
		},
		{
			name:    "empty substitution source",
			input:   "numeric_substitutions:\n  - {from: \"\", to: \"0\"}\n",
			wantErr: "from is empty",
		},
		{
			name:    "duplicate alias",
			input:   "aliases:\n  - {alias: a b, canonical: X}\n  - {alias: \"A  B\", canonical: Y}\n",
			wantErr: "duplicate alias",
		},
		{
			name:    "negative header rows",
			input:   "max_header_rows: -1\n",
			wantErr: "max_header_rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("max_header_rows: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if r.MaxHeaderRows() != 1 {
		t.Errorf("MaxHeaderRows() = %d, want 1", r.MaxHeaderRows())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	out, err := yaml.Marshal(Default())
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	r, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(marshalled) error = %v\n%s", err, out)
	}
	if len(r.Fields()) != len(Default().Fields()) {
		t.Errorf("round trip lost fields: got %d, want %d", len(r.Fields()), len(Default().Fields()))
	}
	if !strings.Contains(string(out), "AIRPORT_CODE") {
		t.Error("marshalled rules should spell column types by name")
	}
}

// ----------------------------------------------------------------------------
// Alias keys and header vocabulary
// ----------------------------------------------------------------------------

func TestAliasKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Multi- Engine  Land", "multi- engine land"},
		{"  ENGINE LAND ", "engine land"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := AliasKey(tt.input); got != tt.want {
			t.Errorf("AliasKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsHeaderTerm(t *testing.T) {
	r := Default()

	tests := []struct {
		text string
		want bool
	}{
		{"DATE", true},
		{"to", true},
		{"Route of\nFlight", true},
		{"NR INST. APP.", true},
		{"TOTAL DURATION OF FLIGHT", true},
		{"KSFO", false},
		{"Touch and go", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.IsHeaderTerm(tt.text); got != tt.want {
			t.Errorf("IsHeaderTerm(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestColumnType_String(t *testing.T) {
	for _, ct := range []ColumnType{TypeString, TypeInteger, TypeAirportCode, TypeDate} {
		parsed, err := ParseColumnType(ct.String())
		if err != nil {
			t.Fatalf("ParseColumnType(%q) error = %v", ct.String(), err)
		}
		if parsed != ct {
			t.Errorf("ParseColumnType(%q) = %v, want %v", ct.String(), parsed, ct)
		}
	}
}
