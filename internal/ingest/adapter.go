// Package ingest turns concrete analysis payloads into the logbook cell
// model. Each payload shape implements SegmentReader once; the pipeline only
// ever sees logbook.Segment values produced by Normalize.
package ingest

import (
	"errors"

	"github.com/JonMunkholm/logbookscan/internal/logbook"
)

var (
	// ErrEmptyPayload is returned when a payload decodes to no tables.
	ErrEmptyPayload = errors.New("empty payload: no tables found")

	// ErrUnknownFormat is returned when a payload shape cannot be recognized.
	ErrUnknownFormat = errors.New("unknown payload format")

	// ErrPayloadTooLarge is returned when a fetched payload exceeds the
	// configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// CellReader exposes one table cell of a concrete payload. Indices are
// 0-based and segment-local.
type CellReader interface {
	RowIndex() int
	ColumnIndex() int
	ColumnSpan() int
	Content() *string
	IsHeader() bool
}

// SegmentReader exposes one detected table region of a concrete payload.
type SegmentReader interface {
	ColumnCount() int
	PageNumber() int
	Cells() []CellReader
}

// Normalize copies segments into the logbook cell model, keeping order.
func Normalize(segments []SegmentReader) []logbook.Segment {
	out := make([]logbook.Segment, 0, len(segments))
	for _, seg := range segments {
		readers := seg.Cells()
		cells := make([]logbook.Cell, 0, len(readers))
		for _, c := range readers {
			cells = append(cells, logbook.Cell{
				RowIndex:    c.RowIndex(),
				ColumnIndex: c.ColumnIndex(),
				ColumnSpan:  c.ColumnSpan(),
				Content:     c.Content(),
				Header:      c.IsHeader(),
			})
		}
		out = append(out, logbook.Segment{
			ColumnCount: seg.ColumnCount(),
			PageNumber:  seg.PageNumber(),
			Cells:       cells,
		})
	}
	return out
}
