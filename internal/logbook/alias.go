package logbook

import (
	"sort"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

// NormalizeHeader maps a header value to its canonical name through the
// alias table. Unknown values are returned unchanged.
func NormalizeHeader(value string, r *rules.Rules) string {
	if a, ok := r.LookupAlias(value); ok {
		return a.Canonical
	}
	return value
}

// NormalizeHeaderRow returns a copy of the header row with every value mapped
// through the alias table and RowIndex forced to 0. The second result lists
// the columns whose alias is flagged ambiguous.
func NormalizeHeaderRow(header Row, r *rules.Rules) (Row, []int) {
	out := Row{
		RowIndex:      0,
		IsHeader:      true,
		ColumnData:    make(map[int]string, len(header.ColumnData)),
		ParentHeaders: header.ParentHeaders,
	}

	var ambiguous []int
	for col, value := range header.ColumnData {
		a, ok := r.LookupAlias(value)
		if !ok {
			out.ColumnData[col] = value
			continue
		}
		out.ColumnData[col] = a.Canonical
		if a.Ambiguous {
			ambiguous = append(ambiguous, col)
		}
	}
	sort.Ints(ambiguous)

	return out, ambiguous
}
