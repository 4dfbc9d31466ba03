// Package rules holds the process-wide reconstruction configuration: the
// ordered column-type list, the OCR glyph substitution tables, the header
// alias table and the header vocabulary used to tell header rows from data.
//
// A *Rules value is built once at startup (Default, Load or Parse) and is
// read-only afterwards. Accessors hand out copies, so it can be shared by
// any number of concurrent reconstructions.
package rules

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ColumnType is the semantic type inferred for a header column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInteger
	TypeAirportCode
	TypeDate
)

// String returns the configuration name of the type.
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeAirportCode:
		return "AIRPORT_CODE"
	case TypeDate:
		return "DATE"
	default:
		return "STRING"
	}
}

// ParseColumnType converts a configuration name to a ColumnType.
// Matching is case-insensitive.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STRING":
		return TypeString, nil
	case "INTEGER":
		return TypeInteger, nil
	case "AIRPORT_CODE":
		return TypeAirportCode, nil
	case "DATE":
		return TypeDate, nil
	default:
		return TypeString, fmt.Errorf("unknown column type %q", s)
	}
}

func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ColumnType) UnmarshalText(b []byte) error {
	parsed, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// FieldType pairs a header field name with its column type.
type FieldType struct {
	Field string     `yaml:"field" json:"field"`
	Type  ColumnType `yaml:"type" json:"type"`
}

// Substitution replaces every occurrence of From with To.
type Substitution struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Alias maps a header spelling to its canonical name. Ambiguous marks an
// alias known to collide with another canonical header.
type Alias struct {
	Alias     string `yaml:"alias" json:"alias"`
	Canonical string `yaml:"canonical" json:"canonical"`
	Ambiguous bool   `yaml:"ambiguous,omitempty" json:"ambiguous,omitempty"`
}

// DefaultMaxHeaderRows is used when the rules file does not set max_header_rows.
const DefaultMaxHeaderRows = 2

// minContainedTerm is the shortest vocabulary term matched inside a longer
// cell text. Shorter terms ("TO", "DAY") only match a whole cell.
const minContainedTerm = 4

// Rules is the immutable reconstruction configuration.
type Rules struct {
	maxHeaderRows int
	fields        []FieldType
	numeric       []Substitution
	airport       []Substitution
	aliases       []Alias
	aliasIndex    map[string]Alias
	extraTerms    []string
	vocabulary    map[string]struct{}
	longTerms     []string
}

// Fields returns the ordered column-type list.
func (r *Rules) Fields() []FieldType {
	return append([]FieldType(nil), r.fields...)
}

// NumericSubstitutions returns the glyph table applied to INTEGER columns.
func (r *Rules) NumericSubstitutions() []Substitution {
	return append([]Substitution(nil), r.numeric...)
}

// AirportSubstitutions returns the glyph table applied to AIRPORT_CODE columns.
func (r *Rules) AirportSubstitutions() []Substitution {
	return append([]Substitution(nil), r.airport...)
}

// Aliases returns the header alias table in configuration order.
func (r *Rules) Aliases() []Alias {
	return append([]Alias(nil), r.aliases...)
}

// HeaderTerms returns the extra header-only labels from the rules file.
func (r *Rules) HeaderTerms() []string {
	return append([]string(nil), r.extraTerms...)
}

// MaxHeaderRows is the largest number of leading rows of a segment that may
// be treated as header rows.
func (r *Rules) MaxHeaderRows() int {
	return r.maxHeaderRows
}

// LookupAlias finds the alias entry for a header value.
func (r *Rules) LookupAlias(header string) (Alias, bool) {
	a, ok := r.aliasIndex[AliasKey(header)]
	return a, ok
}

// IsHeaderTerm reports whether text is a known header label: an exact match
// of a field name, alias or header term, or a text containing one of the
// longer terms as a whole word sequence.
func (r *Rules) IsHeaderTerm(text string) bool {
	key := termKey(text)
	if key == "" {
		return false
	}
	if _, ok := r.vocabulary[key]; ok {
		return true
	}
	for _, term := range r.longTerms {
		if containsWords(key, term) {
			return true
		}
	}
	return false
}

// AliasKey normalizes a header value for alias lookup: whitespace collapsed,
// trimmed and lower-cased.
func AliasKey(s string) string {
	return cases.Lower(language.Und).String(strings.Join(strings.Fields(s), " "))
}

func termKey(s string) string {
	return cases.Upper(language.Und).String(strings.Join(strings.Fields(s), " "))
}

// containsWords reports whether term occurs in text bounded by non-letters.
func containsWords(text, term string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		before := i == 0 || !isLetter(text[i-1])
		after := end == len(text) || !isLetter(text[end])
		if before && after {
			return true
		}
		start = i + 1
	}
	return false
}

func isLetter(b byte) bool {
	return b < 0x80 && unicode.IsLetter(rune(b))
}

// build validates a decoded document and indexes it.
func build(doc document) (*Rules, error) {
	var errs []string

	r := &Rules{
		maxHeaderRows: DefaultMaxHeaderRows,
		aliasIndex:    make(map[string]Alias, len(doc.Aliases)),
		vocabulary:    make(map[string]struct{}),
	}

	if doc.MaxHeaderRows != nil {
		if *doc.MaxHeaderRows < 0 {
			errs = append(errs, fmt.Sprintf("max_header_rows (%d) must be non-negative", *doc.MaxHeaderRows))
		}
		r.maxHeaderRows = *doc.MaxHeaderRows
	}

	for i, f := range doc.Fields {
		name := strings.TrimSpace(f.Field)
		if name == "" {
			errs = append(errs, fmt.Sprintf("fields[%d]: field name is empty", i))
			continue
		}
		r.fields = append(r.fields, FieldType{Field: name, Type: f.Type})
		r.addTerm(name)
	}

	for i, s := range doc.NumericSubstitutions {
		if s.From == "" {
			errs = append(errs, fmt.Sprintf("numeric_substitutions[%d]: from is empty", i))
			continue
		}
		r.numeric = append(r.numeric, s)
	}

	for i, s := range doc.AirportSubstitutions {
		if s.From == "" {
			errs = append(errs, fmt.Sprintf("airport_substitutions[%d]: from is empty", i))
			continue
		}
		r.airport = append(r.airport, s)
	}

	for i, a := range doc.Aliases {
		key := AliasKey(a.Alias)
		if key == "" || strings.TrimSpace(a.Canonical) == "" {
			errs = append(errs, fmt.Sprintf("aliases[%d]: alias and canonical are required", i))
			continue
		}
		if _, dup := r.aliasIndex[key]; dup {
			errs = append(errs, fmt.Sprintf("aliases[%d]: duplicate alias %q", i, a.Alias))
			continue
		}
		r.aliases = append(r.aliases, a)
		r.aliasIndex[key] = a
		r.addTerm(a.Alias)
		r.addTerm(a.Canonical)
	}

	for _, t := range doc.HeaderTerms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		r.extraTerms = append(r.extraTerms, t)
		r.addTerm(t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid rules:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return r, nil
}

func (r *Rules) addTerm(s string) {
	key := termKey(s)
	if key == "" {
		return
	}
	if _, seen := r.vocabulary[key]; seen {
		return
	}
	r.vocabulary[key] = struct{}{}
	if len(key) >= minContainedTerm {
		r.longTerms = append(r.longTerms, key)
	}
}
