//go:build !ocr

package ocr

import "image"

// Tesseract is unavailable in this build.
type Tesseract struct{}

// NewTesseract always fails without the ocr build tag.
func NewTesseract(lang string) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

func (t *Tesseract) Recognize(img image.Image) (string, error) {
	return "", ErrOCRNotEnabled
}

func (t *Tesseract) Close() error { return nil }

// Available reports whether this build includes Tesseract support.
func Available() bool { return false }
