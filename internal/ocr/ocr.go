// Package ocr re-recognizes table cells the analysis engine returned without
// text, by cropping the cell out of the page image and running it through a
// Recognizer.
//
// The Tesseract recognizer requires cgo and the Tesseract libraries and is
// only compiled with the "ocr" build tag:
//
//	go build -tags ocr ./cmd/...
//
// Without the tag NewTesseract returns ErrOCRNotEnabled.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/JonMunkholm/logbookscan/internal/ingest"
	"github.com/JonMunkholm/logbookscan/internal/logging"
)

// ErrOCRNotEnabled is returned by NewTesseract in builds without the ocr tag.
var ErrOCRNotEnabled = errors.New("ocr support not enabled: rebuild with -tags ocr")

// ErrNeedsGeometry is returned when a page image comes with a payload that
// has no cell positions to crop.
var ErrNeedsGeometry = errors.New("page image rescanning requires a textract payload")

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(img image.Image) (string, error)
}

// DecodeImage reads a page image. PNG, JPEG, GIF, TIFF, BMP and WebP are
// supported.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode page image: %w", err)
	}
	return img, format, nil
}

// Rescanner fills empty Textract cells from the page image.
type Rescanner struct {
	rec Recognizer
}

// NewRescanner creates a Rescanner around a Recognizer.
func NewRescanner(rec Recognizer) *Rescanner {
	return &Rescanner{rec: rec}
}

// FillEmptyCells recognizes every empty cell of the given page and records
// non-blank results on the document. It returns the number of cells filled.
// Recognition errors for single cells are logged and skipped.
func (s *Rescanner) FillEmptyCells(ctx context.Context, doc *ingest.TextractDocument, pageNumber int, page image.Image) (int, error) {
	logger := logging.FromContext(ctx)

	filled := 0
	for _, cell := range doc.EmptyCells() {
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		if ingest.BlockPage(cell) != pageNumber {
			continue
		}

		id := aws.ToString(cell.Id)
		crop, ok := Crop(page, *cell.Geometry.BoundingBox)
		if !ok {
			continue
		}

		text, err := s.rec.Recognize(crop)
		if err != nil {
			logger.Warn("cell recognition failed", "cell_id", id, "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}

		doc.SetRecognizedText(id, text)
		filled++
	}

	logger.Debug("empty cells rescanned", "page", pageNumber, "filled", filled)
	return filled, nil
}

// Crop cuts the region described by a normalized bounding box out of img.
// Edges are rounded to the nearest pixel. The second result is false when the
// region is empty after clipping to the image bounds.
func Crop(img image.Image, box types.BoundingBox) (image.Image, bool) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	left, top := float64(box.Left), float64(box.Top)
	width, height := float64(box.Width), float64(box.Height)

	rect := image.Rect(
		b.Min.X+int(math.Round(left*w)),
		b.Min.Y+int(math.Round(top*h)),
		b.Min.X+int(math.Round((left+width)*w)),
		b.Min.Y+int(math.Round((top+height)*h)),
	).Intersect(b)
	if rect.Empty() {
		return nil, false
	}

	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect), true
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, true
}
