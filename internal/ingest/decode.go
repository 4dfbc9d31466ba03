package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/JonMunkholm/logbookscan/internal/logbook"
)

// Format names a payload shape.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatGeneric  Format = "generic"
	FormatTextract Format = "textract"
)

// ParseFormat converts a user-supplied format name. Empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatGeneric, FormatTextract:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// Payload is a decoded analysis payload.
type Payload struct {
	Format   Format
	Segments []logbook.Segment

	// Textract is set for Textract payloads. It keeps block geometry for
	// rescanning empty cells.
	Textract *TextractDocument
}

// Decode parses data in the given format and normalizes it to segments.
func Decode(data []byte, format Format) (*Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyPayload
	}

	if format == "" || format == FormatAuto {
		sniffed, err := sniff(trimmed)
		if err != nil {
			return nil, err
		}
		format = sniffed
	}

	var p *Payload
	switch format {
	case FormatGeneric:
		generic, err := DecodeGeneric(trimmed)
		if err != nil {
			return nil, err
		}
		p = &Payload{Format: format, Segments: Normalize(generic.Segments())}
	case FormatTextract:
		doc, err := DecodeTextract(trimmed)
		if err != nil {
			return nil, err
		}
		p = &Payload{Format: format, Segments: Normalize(doc.Segments()), Textract: doc}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	if len(p.Segments) == 0 {
		return nil, ErrEmptyPayload
	}
	return p, nil
}

// Resegment rebuilds the segments of a Textract payload, picking up text
// recognized since it was decoded. Other payloads are left as they are.
func (p *Payload) Resegment() {
	if p.Textract != nil {
		p.Segments = Normalize(p.Textract.Segments())
	}
}

// DecodeGeneric parses the engine-neutral payload, either a bare array of
// tables or an object with a "tables" field.
func DecodeGeneric(data []byte) (GenericPayload, error) {
	var p GenericPayload
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &p.Tables); err != nil {
			return GenericPayload{}, fmt.Errorf("invalid payload: %w", err)
		}
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return GenericPayload{}, fmt.Errorf("invalid payload: %w", err)
	}
	return p, nil
}

// DecodeTextract parses a stored Textract AnalyzeDocument response, as
// written by the AWS CLI or a JSON-encoded AnalyzeDocumentOutput.
func DecodeTextract(data []byte) (*TextractDocument, error) {
	var out textract.AnalyzeDocumentOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return NewTextractDocument(&out), nil
}

// sniff picks a format from the top-level JSON shape.
func sniff(data []byte) (Format, error) {
	if data[0] == '[' {
		return FormatGeneric, nil
	}
	if data[0] != '{' {
		return "", fmt.Errorf("invalid payload: expected a JSON object or array")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	if _, ok := keys["Blocks"]; ok {
		return FormatTextract, nil
	}
	if _, ok := keys["tables"]; ok {
		return FormatGeneric, nil
	}
	return "", ErrUnknownFormat
}
