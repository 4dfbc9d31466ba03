package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/JonMunkholm/logbookscan/internal/ingest"
)

const emptyCellDoc = `{"Blocks": [
  {"Id": "T1", "BlockType": "TABLE", "Page": 1, "Relationships": [{"Type": "CHILD", "Ids": ["C1", "C2", "C3"]}]},
  {"Id": "C1", "BlockType": "CELL", "RowIndex": 1, "ColumnIndex": 1, "Relationships": [{"Type": "CHILD", "Ids": ["W1"]}],
   "Geometry": {"BoundingBox": {"Left": 0.0, "Top": 0.0, "Width": 0.5, "Height": 0.1}}},
  {"Id": "C2", "BlockType": "CELL", "RowIndex": 2, "ColumnIndex": 1,
   "Geometry": {"BoundingBox": {"Left": 0.5, "Top": 0.2, "Width": 0.1, "Height": 0.05}}},
  {"Id": "C3", "BlockType": "CELL", "RowIndex": 3, "ColumnIndex": 1,
   "Geometry": {"BoundingBox": {"Left": 0.2, "Top": 0.4, "Width": 0.1, "Height": 0.05}}},
  {"Id": "W1", "BlockType": "WORD", "Text": "FROM"}
]}`

type fakeRecognizer struct {
	texts  []string
	errs   []error
	bounds []image.Rectangle
}

func (f *fakeRecognizer) Recognize(img image.Image) (string, error) {
	i := len(f.bounds)
	f.bounds = append(f.bounds, img.Bounds())
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.texts) {
		return f.texts[i], err
	}
	return "", err
}

func page(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	return img
}

func TestFillEmptyCells(t *testing.T) {
	doc, err := ingest.DecodeTextract([]byte(emptyCellDoc))
	require.NoError(t, err)

	rec := &fakeRecognizer{texts: []string{" K5FO\n", "  "}}
	filled, err := NewRescanner(rec).FillEmptyCells(context.Background(), doc, 1, page(100, 100))
	require.NoError(t, err)

	assert.Equal(t, 1, filled)
	require.Len(t, rec.bounds, 2, "only empty cells are recognized")
	assert.Equal(t, image.Rect(50, 20, 60, 25), rec.bounds[0])

	empty := doc.EmptyCells()
	require.Len(t, empty, 1, "blank recognition leaves the cell empty")
	assert.Equal(t, "C3", aws.ToString(empty[0].Id))

	segs := ingest.Normalize(doc.Segments())
	require.Len(t, segs, 1)
	for _, c := range segs[0].Cells {
		if c.RowIndex == 1 {
			assert.Equal(t, "K5FO", c.Text())
		}
	}
}

func TestFillEmptyCells_SkipsFailuresAndOtherPages(t *testing.T) {
	doc, err := ingest.DecodeTextract([]byte(emptyCellDoc))
	require.NoError(t, err)

	rec := &fakeRecognizer{errs: []error{errors.New("tesseract crashed")}, texts: []string{"", "LAX"}}
	filled, err := NewRescanner(rec).FillEmptyCells(context.Background(), doc, 1, page(100, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	other := &fakeRecognizer{}
	filled, err = NewRescanner(other).FillEmptyCells(context.Background(), doc, 2, page(100, 100))
	require.NoError(t, err)
	assert.Zero(t, filled)
	assert.Empty(t, other.bounds)
}

func TestFillEmptyCells_Cancelled(t *testing.T) {
	doc, err := ingest.DecodeTextract([]byte(emptyCellDoc))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewRescanner(&fakeRecognizer{}).FillEmptyCells(ctx, doc, 1, page(10, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func box(left, top, width, height float32) types.BoundingBox {
	return types.BoundingBox{
		Left:   left,
		Top:    top,
		Width:  width,
		Height: height,
	}
}

func TestCrop(t *testing.T) {
	img := image.NewGray(image.Rect(10, 10, 110, 210))

	got, ok := Crop(img, box(0.1, 0.5, 0.2, 0.1))
	require.True(t, ok)
	assert.Equal(t, image.Rect(20, 110, 40, 130), got.Bounds())

	got, ok = Crop(img, box(0.9, 0.9, 0.5, 0.5))
	require.True(t, ok, "clipped to the page")
	assert.Equal(t, image.Rect(100, 190, 110, 210), got.Bounds())

	_, ok = Crop(img, box(1.2, 0.1, 0.1, 0.1))
	assert.False(t, ok)
}

func TestDecodeImage(t *testing.T) {
	src := page(8, 4)

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf))

			img, format, err := DecodeImage(&buf)
			require.NoError(t, err)
			assert.Equal(t, name, format)
			assert.Equal(t, src.Bounds(), img.Bounds())
		})
	}

	_, _, err := DecodeImage(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode page image")
}
