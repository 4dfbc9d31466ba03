// Package export renders reconstructed logbook tables as JSON, CSV or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/logbookscan/internal/logbook"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a user-supplied format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, csv or xlsx)", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Envelope is the response for a whole-payload reconstruction.
type Envelope struct {
	ScanID string              `json:"scanId"`
	Rows   []logbook.RowRecord `json:"rows"`
	Stats  logbook.Stats       `json:"stats"`
}

// PageEnvelope is one page of a per-page reconstruction.
type PageEnvelope struct {
	PageNumber int                 `json:"pageNumber"`
	Rows       []logbook.RowRecord `json:"rows"`
	Stats      logbook.Stats       `json:"stats"`
}

// PagesEnvelope is the response for a per-page reconstruction.
type PagesEnvelope struct {
	ScanID string         `json:"scanId"`
	Pages  []PageEnvelope `json:"pages"`
}

// NewEnvelope builds the response for a single result.
func NewEnvelope(scanID string, res logbook.Result) Envelope {
	return Envelope{
		ScanID: scanID,
		Rows:   logbook.BuildResponse(res.Rows),
		Stats:  res.Stats,
	}
}

// NewPagesEnvelope builds the response for per-page results.
func NewPagesEnvelope(scanID string, pages []logbook.PageResult) PagesEnvelope {
	env := PagesEnvelope{ScanID: scanID, Pages: make([]PageEnvelope, 0, len(pages))}
	for _, p := range pages {
		env.Pages = append(env.Pages, PageEnvelope{
			PageNumber: p.PageNumber,
			Rows:       logbook.BuildResponse(p.Rows),
			Stats:      p.Stats,
		})
	}
	return env
}

// WriteJSON encodes v, indented when pretty is set.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Columns returns every column index used by rows, ascending.
func Columns(rows []logbook.Row) []int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		for col := range r.ColumnData {
			seen[col] = struct{}{}
		}
		for col := range r.ParentHeaders {
			seen[col] = struct{}{}
		}
	}
	cols := make([]int, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	return cols
}

// grid lays rows out as records over the given columns. A header with
// parent labels is preceded by a record holding those labels.
func grid(rows []logbook.Row, cols []int) [][]string {
	var out [][]string
	for _, r := range rows {
		if r.IsHeader && len(r.ParentHeaders) > 0 {
			out = append(out, record(r.ParentHeaders, cols))
		}
		out = append(out, record(r.ColumnData, cols))
	}
	return out
}

func record(data map[int]string, cols []int) []string {
	rec := make([]string, len(cols))
	for i, col := range cols {
		rec[i] = data[col]
	}
	return rec
}

// WriteCSV writes one record per row over the union of all columns, blank
// where a row has no value.
func WriteCSV(w io.Writer, rows []logbook.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(grid(rows, Columns(rows))); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteCSVPages writes per-page results with a leading page column.
func WriteCSVPages(w io.Writer, pages []logbook.PageResult) error {
	cw := csv.NewWriter(w)
	for _, p := range pages {
		page := strconv.Itoa(p.PageNumber)
		for _, rec := range grid(p.Rows, Columns(p.Rows)) {
			if err := cw.Write(append([]string{page}, rec...)); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
