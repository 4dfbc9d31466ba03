package logbook

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

// airportCodeRegex matches a well-formed ICAO/IATA style code.
var airportCodeRegex = regexp.MustCompile(`^[A-Z]{3,4}$`)

// maxAirportCodeLen caps a salvaged airport code.
const maxAirportCodeLen = 4

// InferColumnTypes assigns a column type to every column of the header row.
// A header takes the type of the first field it equals; failing that, of the
// longest field name it contains, ties going to the earlier field. Both
// comparisons ignore case, so "Night ldg" equals the field "NIGHT LDG".
// Headers matching nothing are STRING.
func InferColumnTypes(header Row, r *rules.Rules) map[int]rules.ColumnType {
	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToUpper(f.Field)
	}

	types := make(map[int]rules.ColumnType, len(header.ColumnData))
	for col, text := range header.ColumnData {
		types[col] = inferType(strings.ToUpper(text), names, fields)
	}
	return types
}

func inferType(header string, names []string, fields []rules.FieldType) rules.ColumnType {
	for i, name := range names {
		if header == name {
			return fields[i].Type
		}
	}

	best, bestLen := -1, 0
	for i, name := range names {
		if len(name) > bestLen && strings.Contains(header, name) {
			best, bestLen = i, len(name)
		}
	}
	if best >= 0 {
		return fields[best].Type
	}
	return rules.TypeString
}

// Corrector repairs OCR glyph confusions in typed columns using the rules'
// substitution tables.
type Corrector struct {
	numeric []rules.Substitution
	airport []rules.Substitution
}

// NewCorrector builds a Corrector from the rules' substitution tables.
func NewCorrector(r *rules.Rules) *Corrector {
	return &Corrector{
		numeric: r.NumericSubstitutions(),
		airport: r.AirportSubstitutions(),
	}
}

// Apply corrects value according to its column type. STRING and DATE values
// are returned unchanged.
func (c *Corrector) Apply(t rules.ColumnType, value string) string {
	switch t {
	case rules.TypeInteger:
		return c.Integer(value)
	case rules.TypeAirportCode:
		return c.AirportCode(value)
	default:
		return value
	}
}

// Integer maps letters read in place of digits back to digits, strips every
// other non-digit, and returns "0" when nothing is left.
func (c *Corrector) Integer(value string) string {
	s := substitute(value, c.numeric)
	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "0"
	}
	return s
}

// AirportCode upper-cases value and maps digits read in place of letters back
// to letters. A result that is not a 3-4 letter code is reduced to its
// letters, truncated to four.
func (c *Corrector) AirportCode(value string) string {
	s := substitute(cases.Upper(language.Und).String(value), c.airport)
	if airportCodeRegex.MatchString(s) {
		return s
	}

	s = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, s)
	if len(s) > maxAirportCodeLen {
		s = s[:maxAirportCodeLen]
	}
	return s
}

// substitute applies each substitution in order as an exact-substring
// replacement.
func substitute(s string, subs []rules.Substitution) string {
	for _, sub := range subs {
		s = strings.ReplaceAll(s, sub.From, sub.To)
	}
	return s
}

// correctRow applies column corrections to a data row in place. Values that
// correct to the empty string are removed.
func (c *Corrector) correctRow(row Row, types map[int]rules.ColumnType) {
	for col, value := range row.ColumnData {
		corrected := c.Apply(types[col], value)
		if corrected == "" {
			delete(row.ColumnData, col)
			continue
		}
		row.ColumnData[col] = corrected
	}
}
