package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/logbookscan/internal/export"
	"github.com/JonMunkholm/logbookscan/internal/ingest"
	"github.com/JonMunkholm/logbookscan/internal/logbook"
	"github.com/JonMunkholm/logbookscan/internal/logging"
	"github.com/JonMunkholm/logbookscan/internal/ocr"
	"github.com/JonMunkholm/logbookscan/internal/web/views"
)

// scanRequest is the decoded input of a reconstruction request.
type scanRequest struct {
	payload []byte
	image   io.Reader // optional page image
	page    int       // page the image shows
}

// scanOptions are the query options of a reconstruction request.
type scanOptions struct {
	format ingest.Format
	export export.Format
	split  bool
	pretty bool
	html   bool
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"ocr":     s.rescanner != nil,
		"storage": s.fetcher != nil,
	})
}

// handleRules returns the active rules as YAML, in the same shape a rules
// file is written in.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s.recon.Rules()); err != nil {
		s.respondError(w, r, fmt.Errorf("encode rules: %w", err), http.StatusInternalServerError)
		return
	}
	_ = enc.Close()

	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(buf.Bytes())
}

// handleStatus reports the scan limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.limiter.Status())
}

// handleReconstruct reconstructs the logbook table of an analysis payload.
//
// The payload is the request body, the "payload" part of a multipart form,
// or an object named by source=s3://bucket/key. A multipart "image" part
// holds the page image used to rescan cells the engine left empty.
//
// Query parameters:
//   - format: auto (default), generic or textract
//   - split: pages or none; defaults to the server setting
//   - export: json (default), csv or xlsx
//   - pretty: indent JSON output
func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, err := s.parseScanOptions(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusServiceUnavailable))
		return
	}
	defer s.limiter.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Scan.MaxPayloadSize)
	req, err := s.readScanRequest(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusBadRequest))
		return
	}

	payload, err := ingest.Decode(req.payload, opts.format)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusBadRequest))
		return
	}

	scanID := uuid.NewString()
	logger := logging.WithFields(ctx, "scan_id", scanID)

	if req.image != nil {
		filled, err := s.rescan(ctx, payload, req)
		if err != nil {
			s.respondError(w, r, err, statusFor(err, http.StatusBadRequest))
			return
		}
		logger.Info("rescanned empty cells", "page", req.page, "filled", filled)
	}

	w.Header().Set("X-Scan-ID", scanID)

	if opts.split {
		pages := s.recon.ReconstructPages(ctx, payload.Segments)
		for _, p := range pages {
			logScan(logger, payload.Format, p.PageNumber, p.Stats)
		}
		s.writePages(w, r, scanID, pages, opts)
		return
	}

	res := s.recon.Reconstruct(ctx, payload.Segments)
	logScan(logger, payload.Format, 0, res.Stats)
	s.writeResult(w, r, scanID, res, opts)
}

func (s *Server) parseScanOptions(r *http.Request) (scanOptions, error) {
	q := r.URL.Query()

	format, err := ingest.ParseFormat(q.Get("format"))
	if err != nil {
		return scanOptions{}, err
	}
	exp, err := export.ParseFormat(q.Get("export"))
	if err != nil {
		return scanOptions{}, err
	}

	split := s.cfg.Scan.SplitPages
	switch mode := strings.ToLower(q.Get("split")); mode {
	case "":
	case "pages", "page", "true":
		split = true
	case "none", "false":
		split = false
	default:
		return scanOptions{}, fmt.Errorf("invalid split mode %q (want pages or none)", mode)
	}

	pretty, _ := strconv.ParseBool(q.Get("pretty"))

	return scanOptions{
		format: format,
		export: exp,
		split:  split,
		pretty: pretty,
		html:   q.Get("export") == "" && wantsHTML(r),
	}, nil
}

// readScanRequest collects the payload and optional page image.
func (s *Server) readScanRequest(r *http.Request) (scanRequest, error) {
	if source := r.URL.Query().Get("source"); source != "" {
		data, err := s.fetch(r.Context(), source)
		return scanRequest{payload: data}, err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		return scanRequest{payload: data}, err
	}

	if err := r.ParseMultipartForm(s.cfg.Scan.MaxPayloadSize); err != nil {
		return scanRequest{}, fmt.Errorf("invalid payload: %w", err)
	}

	var req scanRequest
	switch file, _, err := r.FormFile("payload"); {
	case err == nil:
		defer file.Close()
		if req.payload, err = io.ReadAll(file); err != nil {
			return scanRequest{}, err
		}
	case errors.Is(err, http.ErrMissingFile):
		req.payload = []byte(r.FormValue("payload"))
	default:
		return scanRequest{}, fmt.Errorf("invalid payload: %w", err)
	}

	if image, _, err := r.FormFile("image"); err == nil {
		// The multipart form keeps the file until the request ends.
		req.image = image
	}
	req.page = parseIntParam(r.FormValue("page"), 1)

	return req, nil
}

func (s *Server) fetch(ctx context.Context, source string) ([]byte, error) {
	if !ingest.IsS3Path(source) {
		return nil, fmt.Errorf("invalid source %q: want s3://bucket/key", source)
	}
	if s.fetcher == nil {
		return nil, ingest.ErrStorageNotConfigured
	}
	return s.fetcher.Fetch(ctx, source)
}

// rescan fills empty Textract cells from the page image and rebuilds the
// payload's segments.
func (s *Server) rescan(ctx context.Context, payload *ingest.Payload, req scanRequest) (int, error) {
	if s.rescanner == nil {
		return 0, ocr.ErrOCRNotEnabled
	}
	if payload.Textract == nil {
		return 0, ocr.ErrNeedsGeometry
	}

	img, _, err := ocr.DecodeImage(req.image)
	if err != nil {
		return 0, err
	}
	filled, err := s.rescanner.FillEmptyCells(ctx, payload.Textract, req.page, img)
	if err != nil {
		return 0, err
	}
	payload.Resegment()
	return filled, nil
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, scanID string, res logbook.Result, opts scanOptions) {
	switch {
	case opts.html:
		renderHTML(w, r, views.ResultTable(scanID, 0, res))
	case opts.export == export.FormatCSV:
		s.writeFile(w, r, scanID, opts.export, func(buf io.Writer) error {
			return export.WriteCSV(buf, res.Rows)
		})
	case opts.export == export.FormatXLSX:
		s.writeFile(w, r, scanID, opts.export, func(buf io.Writer) error {
			return export.WriteXLSX(buf, export.Sheet{Name: "Logbook", Rows: res.Rows})
		})
	default:
		s.writeEnvelope(w, r, export.NewEnvelope(scanID, res), opts.pretty)
	}
}

func (s *Server) writePages(w http.ResponseWriter, r *http.Request, scanID string, pages []logbook.PageResult, opts scanOptions) {
	switch {
	case opts.html:
		renderHTML(w, r, views.PageTables(scanID, pages))
	case opts.export == export.FormatCSV:
		s.writeFile(w, r, scanID, opts.export, func(buf io.Writer) error {
			return export.WriteCSVPages(buf, pages)
		})
	case opts.export == export.FormatXLSX:
		s.writeFile(w, r, scanID, opts.export, func(buf io.Writer) error {
			return export.WriteXLSX(buf, export.PageSheets(pages)...)
		})
	default:
		s.writeEnvelope(w, r, export.NewPagesEnvelope(scanID, pages), opts.pretty)
	}
}

func (s *Server) writeEnvelope(w http.ResponseWriter, r *http.Request, v any, pretty bool) {
	w.Header().Set("Content-Type", export.FormatJSON.ContentType())
	if err := export.WriteJSON(w, v, pretty); err != nil {
		logging.FromContext(r.Context()).Error("write response", "error", err)
	}
}

// writeFile renders an export into memory first so a failure can still be
// reported with an error status.
func (s *Server) writeFile(w http.ResponseWriter, r *http.Request, scanID string, f export.Format, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.respondError(w, r, fmt.Errorf("export %s: %w", f, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="logbook_%s.%s"`, scanID, f))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

type renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

func renderHTML(w http.ResponseWriter, r *http.Request, c renderer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render result", "error", err)
	}
}

func logScan(logger *slog.Logger, format ingest.Format, page int, stats logbook.Stats) {
	args := []any{
		"payload_format", format,
		"segments", stats.Segments,
		"segments_skipped", stats.SegmentsSkipped,
		"header_columns", stats.HeaderColumns,
		"data_rows", stats.DataRows,
	}
	if page > 0 {
		args = append(args, "page", page)
	}
	logger.Info("logbook page reconstructed", args...)
}

// parseIntParam parses a positive integer, falling back to defaultVal.
func parseIntParam(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
