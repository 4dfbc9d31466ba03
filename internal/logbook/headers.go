package logbook

import (
	"sort"
	"strings"
	"unicode"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

// segmentRows is a segment's cells grouped by row index.
type segmentRows struct {
	indices []int // ascending
	cells   map[int][]Cell
	hinted  bool // at least one cell carries an engine header flag
}

// groupByRow groups valid cells by row index. Cells within a row are sorted
// by column index, keeping input order for equal columns.
func groupByRow(cells []Cell) segmentRows {
	sr := segmentRows{cells: make(map[int][]Cell)}

	for _, c := range cells {
		if _, seen := sr.cells[c.RowIndex]; !seen {
			sr.indices = append(sr.indices, c.RowIndex)
		}
		sr.cells[c.RowIndex] = append(sr.cells[c.RowIndex], c)
		if c.Header {
			sr.hinted = true
		}
	}

	sort.Ints(sr.indices)
	for _, idx := range sr.indices {
		row := sr.cells[idx]
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].ColumnIndex < row[j].ColumnIndex
		})
	}

	return sr
}

// firstDataRows returns the first data row of each segment of one page.
// Every row before it is a header row.
//
// A segment carrying engine header flags decides for itself: its first data
// row is the first row holding an unflagged value. The remaining segments sit
// side by side on the page and share one header depth, so a row index is
// header text in all of them or in none. That keeps groupId = rowIndex -
// firstDataRow pointing at the same logbook line in every segment.
func firstDataRows(segs []segmentRows, r *rules.Rules) []int {
	firsts := make([]int, len(segs))
	shared := sharedFirstDataRow(segs, r)
	for i, sr := range segs {
		if sr.hinted {
			firsts[i] = flaggedFirstDataRow(sr)
		} else {
			firsts[i] = shared
		}
	}
	return firsts
}

func flaggedFirstDataRow(sr segmentRows) int {
	for _, idx := range sr.indices {
		for _, c := range sr.cells[idx] {
			if !c.Header && Clean(c.Text()) != "" {
				return idx
			}
		}
	}
	if len(sr.indices) == 0 {
		return 0
	}
	return sr.indices[len(sr.indices)-1] + 1
}

// sharedFirstDataRow walks the row indices of the unflagged segments in
// ascending order. At most maxHeaderRows leading indices are header rows, and
// only while the values found at that index across all segments contain no
// digit and are mostly known header labels. When every row is header text the
// result is one past the last row.
func sharedFirstDataRow(segs []segmentRows, r *rules.Rules) int {
	seen := make(map[int]bool)
	var indices []int
	for _, sr := range segs {
		if sr.hinted {
			continue
		}
		for _, idx := range sr.indices {
			if !seen[idx] {
				seen[idx] = true
				indices = append(indices, idx)
			}
		}
	}
	if len(indices) == 0 {
		return 0
	}
	sort.Ints(indices)

	for i, idx := range indices {
		if i >= r.MaxHeaderRows() || !isHeaderRow(segs, idx, r) {
			return idx
		}
	}
	return indices[len(indices)-1] + 1
}

// isHeaderRow reports whether row idx reads as header text across the
// unflagged segments. A row without any value is not a header row.
func isHeaderRow(segs []segmentRows, idx int, r *rules.Rules) bool {
	var filled, known int
	for _, sr := range segs {
		if sr.hinted {
			continue
		}
		for _, c := range sr.cells[idx] {
			text := Clean(c.Text())
			if text == "" {
				continue
			}
			filled++
			if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
				return false
			}
			if r.IsHeaderTerm(text) {
				known++
			}
		}
	}
	return filled > 0 && known*2 >= filled
}

// headerSet is the consolidated header mapping across all segments.
type headerSet struct {
	labels  map[int]string
	parents map[int]string
	level   map[int]int // header row index that wrote labels[col]
}

func newHeaderSet() *headerSet {
	return &headerSet{
		labels:  make(map[int]string),
		parents: make(map[int]string),
		level:   make(map[int]int),
	}
}

// set writes label at col. A label from a later header row replaces one from
// an earlier row and the replaced label becomes the column's parent.
func (h *headerSet) set(col int, label string, rowIndex int) {
	if prev, exists := h.labels[col]; exists && h.level[col] < rowIndex && prev != label {
		h.parents[col] = prev
	}
	h.labels[col] = label
	h.level[col] = rowIndex
}

// collect writes the segment's header rows (those before firstData) at
// columnIndex+offset, replicated over each cell's span.
func (h *headerSet) collect(sr segmentRows, firstData, offset int) {
	for _, idx := range sr.indices {
		if idx >= firstData {
			break
		}
		for _, c := range sr.cells[idx] {
			text := Clean(c.Text())
			if text == "" {
				continue
			}
			for k := 0; k < c.Span(); k++ {
				h.set(c.ColumnIndex+k+offset, text, idx)
			}
		}
	}
}

// row returns the header row, or false when no header text was found.
// Columns in the returned maps are global column indices.
func (h *headerSet) row() (Row, bool) {
	if len(h.labels) == 0 {
		return Row{}, false
	}

	data := make(map[int]string, len(h.labels))
	for col, label := range h.labels {
		data[col] = label
	}

	row := Row{RowIndex: 0, ColumnData: data, IsHeader: true}
	if len(h.parents) > 0 {
		row.ParentHeaders = make(map[int]string, len(h.parents))
		for col, label := range h.parents {
			row.ParentHeaders[col] = label
		}
	}
	return row, true
}
