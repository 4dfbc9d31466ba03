// Package views renders the HTML fragments served to HTMX clients.
//
// Components live in views.templ; views_templ.go is generated from it with
// `templ generate`.
package views

import (
	"fmt"

	"github.com/JonMunkholm/logbookscan/internal/export"
	"github.com/JonMunkholm/logbookscan/internal/logbook"
)

// table is a reconstruction laid out on its global column indices, one
// value per column with blanks for empty cells.
type table struct {
	parents []string // nil without parent headers
	header  []string // nil without a header row
	body    [][]string
}

func layout(res logbook.Result) table {
	cols := export.Columns(res.Rows)

	var t table
	if header, ok := res.Header(); ok {
		t.header = cells(header.ColumnData, cols)
		if len(header.ParentHeaders) > 0 {
			t.parents = cells(header.ParentHeaders, cols)
		}
	}
	for _, row := range res.Rows {
		if !row.IsHeader {
			t.body = append(t.body, cells(row.ColumnData, cols))
		}
	}
	return t
}

func cells(data map[int]string, cols []int) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = data[col]
	}
	return out
}

func statsLine(s logbook.Stats) string {
	return fmt.Sprintf("%d rows from %d of %d segments", s.DataRows, s.Segments-s.SegmentsSkipped, s.Segments)
}
