package logbook

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// dateMarker identifies the segment holding the date column.
const dateMarker = "DATE"

// boilerplateMarkers appear in certification statements and page totals.
// Any cell containing one (case-insensitively) marks its row or segment as
// boilerplate.
var boilerplateMarkers = []string{
	"I CERTIFY THAT",
	"TOTALS",
	"AMT. FORWARDED",
}

// minSegmentsForTableSkip is the smallest segment count at which a whole
// segment may be dropped as boilerplate. With fewer segments the risk of
// discarding the only data-bearing one is too high.
const minSegmentsForTableSkip = 3

// Clean normalizes cell text: NFC-normalized, line breaks and runs of
// whitespace collapsed to single spaces, trimmed.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// ReorderTablesByDate returns the segments with the first segment holding a
// "DATE" cell moved to the front. The relative order of every other segment
// is kept. The input slice is not modified.
func ReorderTablesByDate(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))

	dateIdx := -1
	for i, seg := range segments {
		if hasDateCell(seg.Cells) {
			dateIdx = i
			break
		}
	}

	if dateIdx < 0 {
		return append(out, segments...)
	}

	out = append(out, segments[dateIdx])
	out = append(out, segments[:dateIdx]...)
	out = append(out, segments[dateIdx+1:]...)
	return out
}

func hasDateCell(cells []Cell) bool {
	for _, c := range cells {
		if strings.EqualFold(Clean(c.Text()), dateMarker) {
			return true
		}
	}
	return false
}

// ShouldSkipTable reports whether a segment is boilerplate and should be
// dropped. It never skips when the page has at most two segments.
func ShouldSkipTable(cells []Cell, totalSegments int) bool {
	if totalSegments < minSegmentsForTableSkip {
		return false
	}
	return containsBoilerplate(cells)
}

// ShouldSkipRow reports whether a row's cells are boilerplate.
func ShouldSkipRow(cells []Cell) bool {
	return containsBoilerplate(cells)
}

func containsBoilerplate(cells []Cell) bool {
	for _, c := range cells {
		text := strings.ToUpper(Clean(c.Text()))
		if text == "" {
			continue
		}
		for _, marker := range boilerplateMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}
