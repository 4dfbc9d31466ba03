package logbook

import (
	"context"
	"log/slog"
	"sort"

	"github.com/JonMunkholm/logbookscan/internal/logging"
	"github.com/JonMunkholm/logbookscan/internal/rules"
)

// Reconstructor turns analysis segments into a typed logbook table.
// It holds only read-only configuration and is safe for concurrent use.
type Reconstructor struct {
	rules     *rules.Rules
	corrector *Corrector
	logger    *slog.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithLogger sets the logger used for diagnostics. By default the request
// logger from the call's context is used.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconstructor) {
		r.logger = l
	}
}

// New creates a Reconstructor for the given rules. Nil rules means the
// embedded defaults.
func New(r *rules.Rules, opts ...Option) *Reconstructor {
	if r == nil {
		r = rules.Default()
	}
	rc := &Reconstructor{
		rules:     r,
		corrector: NewCorrector(r),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Rules returns the rules the Reconstructor was built with.
func (rc *Reconstructor) Rules() *rules.Rules {
	return rc.rules
}

func (rc *Reconstructor) log(ctx context.Context) *slog.Logger {
	if rc.logger != nil {
		return rc.logger
	}
	return logging.FromContext(ctx)
}

// Reconstruct treats all segments as one logical page table and returns its
// header row followed by its corrected data rows.
func (rc *Reconstructor) Reconstruct(ctx context.Context, segments []Segment) Result {
	logger := rc.log(ctx)
	stats := Stats{Segments: len(segments)}

	headers := newHeaderSet()
	groups := make(map[int]map[int]string)
	offset := 0

	var kept []segmentRows
	var widths []int
	for i, seg := range ReorderTablesByDate(segments) {
		if ShouldSkipTable(seg.Cells, len(segments)) {
			stats.SegmentsSkipped++
			logger.Debug("skipping boilerplate segment",
				"position", i,
				"page", seg.PageNumber,
				"cells", len(seg.Cells),
			)
			continue
		}
		sr, width := prepareSegment(logger, seg, &stats)
		kept = append(kept, sr)
		widths = append(widths, width)
	}

	for i, first := range firstDataRows(kept, rc.rules) {
		mergeSegment(kept[i], first, offset, headers, groups, &stats)
		offset += widths[i]
	}

	var rows []Row
	if raw, ok := headers.row(); ok {
		header, ambiguous := NormalizeHeaderRow(raw, rc.rules)
		for _, col := range ambiguous {
			logger.Warn("ambiguous header alias applied",
				"column", col,
				"canonical", header.ColumnData[col],
			)
		}
		stats.HeaderColumns = len(header.ColumnData)
		rows = append(rows, header)
	}

	var types map[int]rules.ColumnType
	if len(rows) > 0 {
		types = InferColumnTypes(rows[0], rc.rules)
	}

	groupIDs := make([]int, 0, len(groups))
	for id, data := range groups {
		if len(data) > 0 {
			groupIDs = append(groupIDs, id)
		}
	}
	sort.Ints(groupIDs)

	for _, id := range groupIDs {
		row := Row{ColumnData: groups[id]}
		rc.corrector.correctRow(row, types)
		if len(row.ColumnData) == 0 {
			continue
		}
		stats.DataRows++
		row.RowIndex = stats.DataRows
		rows = append(rows, row)
	}

	logger.Debug("logbook page reconstructed",
		"segments", stats.Segments,
		"segments_skipped", stats.SegmentsSkipped,
		"rows_skipped", stats.RowsSkipped,
		"cells_dropped", stats.CellsDropped,
		"header_columns", stats.HeaderColumns,
		"data_rows", stats.DataRows,
	)

	return Result{Rows: rows, Stats: stats}
}

// prepareSegment drops cells with negative indices and groups the rest by
// row. It returns the number of global columns the segment occupies.
func prepareSegment(logger *slog.Logger, seg Segment, stats *Stats) (segmentRows, int) {
	width := seg.ColumnCount
	if width < 0 {
		width = 0
	}

	valid := make([]Cell, 0, len(seg.Cells))
	for _, c := range seg.Cells {
		if c.RowIndex < 0 || c.ColumnIndex < 0 {
			stats.CellsDropped++
			continue
		}
		if end := c.ColumnIndex + c.Span(); end > width {
			width = end
		}
		valid = append(valid, c)
	}
	if width != seg.ColumnCount {
		logger.Debug("segment column count widened to observed cells",
			"page", seg.PageNumber,
			"column_count", seg.ColumnCount,
			"observed", width,
		)
	}

	return groupByRow(valid), width
}

// mergeSegment merges one segment into the consolidated header and row
// groups, shifting its columns by offset.
func mergeSegment(
	sr segmentRows,
	first, offset int,
	headers *headerSet,
	groups map[int]map[int]string,
	stats *Stats,
) {
	headers.collect(sr, first, offset)

	for _, idx := range sr.indices {
		if idx < first {
			continue
		}
		cells := sr.cells[idx]
		if ShouldSkipRow(cells) {
			stats.RowsSkipped++
			continue
		}

		groupID := idx - first
		data, ok := groups[groupID]
		if !ok {
			data = make(map[int]string)
			groups[groupID] = data
		}
		for _, c := range cells {
			if text := Clean(c.Text()); text != "" {
				data[c.ColumnIndex+offset] = text
			}
		}
	}
}

// ReconstructPages reconstructs each page's segments independently. Pages
// are returned in ascending page number; segments keep their input order
// within a page.
func (rc *Reconstructor) ReconstructPages(ctx context.Context, segments []Segment) []PageResult {
	byPage := make(map[int][]Segment)
	var pages []int
	for _, seg := range segments {
		if _, seen := byPage[seg.PageNumber]; !seen {
			pages = append(pages, seg.PageNumber)
		}
		byPage[seg.PageNumber] = append(byPage[seg.PageNumber], seg)
	}
	sort.Ints(pages)

	results := make([]PageResult, 0, len(pages))
	for _, page := range pages {
		results = append(results, PageResult{
			PageNumber: page,
			Result:     rc.Reconstruct(ctx, byPage[page]),
		})
	}
	return results
}

// BuildResponse converts rows to their response records. Rows without any
// column data are left out; order is preserved.
func BuildResponse(rows []Row) []RowRecord {
	records := make([]RowRecord, 0, len(rows))
	for _, row := range rows {
		if len(row.ColumnData) == 0 {
			continue
		}
		rec := RowRecord{
			RowIndex: row.RowIndex,
			Content:  row.ColumnData,
			IsHeader: row.IsHeader,
		}
		if len(row.ParentHeaders) > 0 {
			rec.ParentHeaders = row.ParentHeaders
		}
		records = append(records, rec)
	}
	return records
}
