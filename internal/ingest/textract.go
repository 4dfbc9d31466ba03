package ingest

import (
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

func related(b *types.Block, rel types.RelationshipType) []string {
	var ids []string
	for _, r := range b.Relationships {
		if r.Type == rel {
			ids = append(ids, r.Ids...)
		}
	}
	return ids
}

func hasEntity(b *types.Block, entity types.EntityType) bool {
	for _, e := range b.EntityTypes {
		if e == entity {
			return true
		}
	}
	return false
}

// TextractDocument is a Textract AnalyzeDocument (or GetDocumentAnalysis)
// response with the TABLES feature. Text recognized later for empty cells
// (see SetRecognizedText) takes the place of the missing WORD children.
type TextractDocument struct {
	Output *textract.AnalyzeDocumentOutput

	index      map[string]*types.Block
	recognized map[string]string
}

// NewTextractDocument wraps an AnalyzeDocument response, as returned by the
// Textract client or decoded from a stored response.
func NewTextractDocument(out *textract.AnalyzeDocumentOutput) *TextractDocument {
	if out == nil {
		out = &textract.AnalyzeDocumentOutput{}
	}
	return &TextractDocument{Output: out}
}

// Blocks returns the response blocks.
func (d *TextractDocument) Blocks() []types.Block {
	return d.Output.Blocks
}

func (d *TextractDocument) block(id string) *types.Block {
	if d.index == nil {
		blocks := d.Output.Blocks
		d.index = make(map[string]*types.Block, len(blocks))
		for i := range blocks {
			d.index[aws.ToString(blocks[i].Id)] = &blocks[i]
		}
	}
	return d.index[id]
}

// cellText joins the WORD children of a cell, falling back to recognized
// text. The second result is false when the cell has no text at all.
func (d *TextractDocument) cellText(cell *types.Block) (string, bool) {
	var words []string
	for _, id := range related(cell, types.RelationshipTypeChild) {
		b := d.block(id)
		if b == nil || b.BlockType != types.BlockTypeWord {
			continue
		}
		if text := aws.ToString(b.Text); text != "" {
			words = append(words, text)
		}
	}
	if len(words) > 0 {
		return strings.Join(words, " "), true
	}
	if text, ok := d.recognized[aws.ToString(cell.Id)]; ok && text != "" {
		return text, true
	}
	return "", false
}

// EmptyCells returns the CELL blocks that have no text and a bounding box,
// in document order.
func (d *TextractDocument) EmptyCells() []types.Block {
	var out []types.Block
	blocks := d.Output.Blocks
	for i := range blocks {
		b := &blocks[i]
		if b.BlockType != types.BlockTypeCell || b.Geometry == nil || b.Geometry.BoundingBox == nil {
			continue
		}
		if _, ok := d.cellText(b); !ok {
			out = append(out, *b)
		}
	}
	return out
}

// SetRecognizedText records text recognized for an empty cell.
func (d *TextractDocument) SetRecognizedText(cellID, text string) {
	if d.recognized == nil {
		d.recognized = make(map[string]string)
	}
	d.recognized[cellID] = text
}

// BlockPage returns the 1-based page of a block; single-page responses
// leave it unset.
func BlockPage(b types.Block) int {
	if p := int(aws.ToInt32(b.Page)); p > 0 {
		return p
	}
	return 1
}

// Segments returns one segment per TABLE block, in document order.
func (d *TextractDocument) Segments() []SegmentReader {
	var out []SegmentReader
	blocks := d.Output.Blocks
	for i := range blocks {
		if blocks[i].BlockType == types.BlockTypeTable {
			out = append(out, d.table(&blocks[i]))
		}
	}
	return out
}

func (d *TextractDocument) table(tbl *types.Block) textractSegment {
	seg := textractSegment{page: BlockPage(*tbl)}

	cells := make(map[string]*textractCell)
	var order []string
	for _, id := range related(tbl, types.RelationshipTypeChild) {
		b := d.block(id)
		if b == nil || b.BlockType != types.BlockTypeCell {
			continue
		}
		row, col := int(aws.ToInt32(b.RowIndex)), int(aws.ToInt32(b.ColumnIndex))
		if row < 1 || col < 1 {
			continue
		}
		c := &textractCell{
			row:    row - 1,
			col:    col - 1,
			span:   max(int(aws.ToInt32(b.ColumnSpan)), 1),
			header: hasEntity(b, types.EntityTypeColumnHeader),
		}
		if text, ok := d.cellText(b); ok {
			c.content = &text
		}
		cells[id] = c
		order = append(order, id)
	}

	for _, id := range related(tbl, types.RelationshipTypeMergedCell) {
		if m := d.block(id); m != nil && m.BlockType == types.BlockTypeMergedCell {
			d.merge(m, cells)
		}
	}

	for _, id := range order {
		c, ok := cells[id]
		if !ok {
			continue
		}
		seg.cells = append(seg.cells, *c)
		if end := c.col + c.span; end > seg.columns {
			seg.columns = end
		}
	}
	return seg
}

// merge folds the cells covered by a MERGED_CELL into its top-left cell:
// the text of all covered cells is joined there, the span widened, and the
// other covered cells removed.
func (d *TextractDocument) merge(m *types.Block, cells map[string]*textractCell) {
	var ids []string
	for _, id := range related(m, types.RelationshipTypeChild) {
		if _, ok := cells[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := cells[ids[i]], cells[ids[j]]
		if a.row != b.row {
			return a.row < b.row
		}
		return a.col < b.col
	})

	var parts []string
	header := hasEntity(m, types.EntityTypeColumnHeader)
	for _, id := range ids {
		c := cells[id]
		if c.content != nil {
			parts = append(parts, *c.content)
		}
		header = header || c.header
	}

	top := cells[ids[0]]
	top.span = max(int(aws.ToInt32(m.ColumnSpan)), top.span)
	top.header = header
	if len(parts) > 0 {
		text := strings.Join(parts, " ")
		top.content = &text
	}
	for _, id := range ids[1:] {
		delete(cells, id)
	}
}

type textractCell struct {
	row, col, span int
	content        *string
	header         bool
}

func (c textractCell) RowIndex() int    { return c.row }
func (c textractCell) ColumnIndex() int { return c.col }
func (c textractCell) ColumnSpan() int  { return c.span }
func (c textractCell) Content() *string { return c.content }
func (c textractCell) IsHeader() bool   { return c.header }

type textractSegment struct {
	columns int
	page    int
	cells   []textractCell
}

func (s textractSegment) ColumnCount() int { return s.columns }
func (s textractSegment) PageNumber() int  { return s.page }

func (s textractSegment) Cells() []CellReader {
	out := make([]CellReader, len(s.cells))
	for i, c := range s.cells {
		out[i] = c
	}
	return out
}
