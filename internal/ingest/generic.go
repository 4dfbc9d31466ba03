package ingest

// GenericCell is a cell in the engine-neutral payload:
//
//	{"rowIndex": 0, "columnIndex": 2, "columnSpan": 1, "content": "DATE"}
//
// columnSpan defaults to 1 and content may be null or missing.
type GenericCell struct {
	Row    int     `json:"rowIndex"`
	Column int     `json:"columnIndex"`
	Span   *int    `json:"columnSpan,omitempty"`
	Text   *string `json:"content"`
	Header bool    `json:"isHeader,omitempty"`
}

func (c GenericCell) RowIndex() int    { return c.Row }
func (c GenericCell) ColumnIndex() int { return c.Column }
func (c GenericCell) Content() *string { return c.Text }
func (c GenericCell) IsHeader() bool   { return c.Header }

func (c GenericCell) ColumnSpan() int {
	if c.Span == nil {
		return 1
	}
	return *c.Span
}

// GenericSegment is a table in the engine-neutral payload.
type GenericSegment struct {
	Columns  int           `json:"columnCount"`
	Page     int           `json:"pageNumber"`
	CellList []GenericCell `json:"cells"`
}

func (s GenericSegment) ColumnCount() int { return s.Columns }
func (s GenericSegment) PageNumber() int  { return s.Page }

func (s GenericSegment) Cells() []CellReader {
	out := make([]CellReader, len(s.CellList))
	for i, c := range s.CellList {
		out[i] = c
	}
	return out
}

// GenericPayload is either a bare array of segments or {"tables": [...]}.
type GenericPayload struct {
	Tables []GenericSegment `json:"tables"`
}

// Segments returns the payload's tables as adapter segments.
func (p GenericPayload) Segments() []SegmentReader {
	out := make([]SegmentReader, len(p.Tables))
	for i, t := range p.Tables {
		out[i] = t
	}
	return out
}
