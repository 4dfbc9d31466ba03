package logbook

// Cell is one table cell as reported by the analysis engine, after the
// ingestion adapter has normalized it. Indices are segment-local and 0-based.
type Cell struct {
	RowIndex    int
	ColumnIndex int
	ColumnSpan  int     // >= 1; 0 is read as 1
	Content     *string // nil when the engine reported no text

	// Header is set when the engine itself flagged the cell as a column
	// header. Segments without any flagged cell fall back to text heuristics.
	Header bool
}

// Text returns the cell content, or "" when absent.
func (c Cell) Text() string {
	if c.Content == nil {
		return ""
	}
	return *c.Content
}

// Span returns the column span, treating values below 1 as 1.
func (c Cell) Span() int {
	if c.ColumnSpan < 1 {
		return 1
	}
	return c.ColumnSpan
}

// Segment is one physically detected table region. Several segments side by
// side can make up a single logical page table.
type Segment struct {
	ColumnCount int
	PageNumber  int
	Cells       []Cell
}

// Row is a reconstructed table row. Row 0 is the header row; data rows are
// numbered contiguously from 1.
type Row struct {
	RowIndex int

	// ColumnData maps a global column index to text. Only non-blank values
	// are present.
	ColumnData map[int]string

	IsHeader bool

	// ParentHeaders records, for two-row headers, the upper label of a column
	// whose own label came from the lower row. Nil when there are none.
	ParentHeaders map[int]string
}

// Stats summarizes one reconstruction for logging and diagnostics.
type Stats struct {
	Segments        int `json:"segments"`
	SegmentsSkipped int `json:"segmentsSkipped"`
	RowsSkipped     int `json:"rowsSkipped"`
	CellsDropped    int `json:"cellsDropped"`
	HeaderColumns   int `json:"headerColumns"`
	DataRows        int `json:"dataRows"`
}

// Result is the output of a reconstruction: the header row (if any) followed
// by data rows in ascending row order.
type Result struct {
	Rows  []Row
	Stats Stats
}

// Header returns the header row and whether one was produced.
func (r Result) Header() (Row, bool) {
	if len(r.Rows) > 0 && r.Rows[0].IsHeader {
		return r.Rows[0], true
	}
	return Row{}, false
}

// PageResult is the reconstruction of the segments of one page.
type PageResult struct {
	PageNumber int
	Result
}

// RowRecord is the response shape of a row at the external boundary.
type RowRecord struct {
	RowIndex      int            `json:"rowIndex"`
	Content       map[int]string `json:"content"`
	ParentHeaders map[int]string `json:"parentHeaders,omitempty"`
	IsHeader      bool           `json:"isHeader"`
}
