package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbookscan/internal/config"
	"github.com/JonMunkholm/logbookscan/internal/export"
	"github.com/JonMunkholm/logbookscan/internal/ingest"
	"github.com/JonMunkholm/logbookscan/internal/logbook"
	"github.com/JonMunkholm/logbookscan/internal/ocr"
)

// closingRecognizer is a recognizer holding native resources.
type closingRecognizer interface {
	ocr.Recognizer
	Close() error
}

// newRecognizer is replaced in tests.
var newRecognizer = func(lang string) (closingRecognizer, error) {
	return ocr.NewTesseract(lang)
}

type reconstructOptions struct {
	format     string
	exportAs   string
	output     string
	pretty     bool
	splitPages bool
	pageImage  string
	page       int
	language   string
}

func newReconstructCmd(root *rootOptions) *cobra.Command {
	opts := &reconstructOptions{}

	cmd := &cobra.Command{
		Use:   "reconstruct [file | s3://bucket/key | -]",
		Short: "Reconstruct the logbook table of an analysis payload",
		Long: "Reads a table analysis payload (a generic table list or a Textract\n" +
			"AnalyzeDocument response) and writes the reconstructed table.\n\n" +
			"With no argument or \"-\" the payload is read from standard input.\n" +
			"s3:// references use the S3_* (or AWS_*) environment settings.",
		Example: "  logbook reconstruct page-12.json\n" +
			"  logbook reconstruct --export csv -o page-12.csv page-12.json\n" +
			"  logbook reconstruct --page-image page-12.png textract-12.json",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			return runReconstruct(cmd, root, opts, source)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "auto", "Payload format (auto, generic, textract)")
	f.StringVar(&opts.exportAs, "export", "", "Output format (json, csv, xlsx); defaults from the --output extension, else json")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	f.BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	f.BoolVar(&opts.splitPages, "split-pages", false, "Reconstruct each page separately")
	f.StringVar(&opts.pageImage, "page-image", "", "Page image used to rescan empty cells (Textract payloads, OCR builds)")
	f.IntVar(&opts.page, "page", 1, "Page number shown in --page-image")
	f.StringVar(&opts.language, "ocr-language", "eng", "Tesseract language for --page-image")

	return cmd
}

func runReconstruct(cmd *cobra.Command, root *rootOptions, opts *reconstructOptions, source string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := root.logger

	format, err := ingest.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	exportFormat, err := resolveExportFormat(opts.exportAs, opts.output)
	if err != nil {
		return err
	}

	data, err := readSource(ctx, cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	payload, err := ingest.Decode(data, format)
	if err != nil {
		return err
	}
	logger.Debug("payload decoded", "format", payload.Format, "segments", len(payload.Segments))

	if opts.pageImage != "" {
		filled, err := rescanPage(ctx, payload, opts)
		if err != nil {
			return err
		}
		logger.Info("rescanned empty cells", "page", opts.page, "filled", filled)
	}

	recon := logbook.New(root.rules, logbook.WithLogger(logger))
	scanID := uuid.NewString()

	out, closeOut, err := openOutput(cmd.OutOrStdout(), opts.output)
	if err != nil {
		return err
	}

	if opts.splitPages {
		err = writePages(out, exportFormat, scanID, recon.ReconstructPages(ctx, payload.Segments), opts.pretty)
	} else {
		err = writeResult(out, exportFormat, scanID, recon.Reconstruct(ctx, payload.Segments), opts.pretty)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

// resolveExportFormat prefers the flag, then the output file extension.
func resolveExportFormat(flag, output string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".csv":
		return export.FormatCSV, nil
	case ".xlsx":
		return export.FormatXLSX, nil
	default:
		return export.FormatJSON, nil
	}
}

func readSource(ctx context.Context, stdin io.Reader, source string) ([]byte, error) {
	switch {
	case source == "-":
		return io.ReadAll(stdin)
	case ingest.IsS3Path(source):
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		fetcher, err := ingest.NewS3Fetcher(cfg.Storage, cfg.Scan.MaxPayloadSize)
		if err != nil {
			return nil, err
		}
		return fetcher.Fetch(ctx, source)
	default:
		return os.ReadFile(source)
	}
}

func rescanPage(ctx context.Context, payload *ingest.Payload, opts *reconstructOptions) (int, error) {
	if payload.Textract == nil {
		return 0, ocr.ErrNeedsGeometry
	}

	f, err := os.Open(opts.pageImage)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, _, err := ocr.DecodeImage(f)
	if err != nil {
		return 0, err
	}

	rec, err := newRecognizer(opts.language)
	if err != nil {
		return 0, err
	}
	defer rec.Close()

	filled, err := ocr.NewRescanner(rec).FillEmptyCells(ctx, payload.Textract, opts.page, img)
	if err != nil {
		return filled, err
	}
	payload.Resegment()
	return filled, nil
}

// openOutput returns stdout or a created file and the function that
// finishes writing to it.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeResult(w io.Writer, f export.Format, scanID string, res logbook.Result, pretty bool) error {
	switch f {
	case export.FormatCSV:
		return export.WriteCSV(w, res.Rows)
	case export.FormatXLSX:
		return export.WriteXLSX(w, export.Sheet{Name: "Logbook", Rows: res.Rows})
	default:
		return export.WriteJSON(w, export.NewEnvelope(scanID, res), pretty)
	}
}

func writePages(w io.Writer, f export.Format, scanID string, pages []logbook.PageResult, pretty bool) error {
	switch f {
	case export.FormatCSV:
		return export.WriteCSVPages(w, pages)
	case export.FormatXLSX:
		return export.WriteXLSX(w, export.PageSheets(pages)...)
	default:
		return export.WriteJSON(w, export.NewPagesEnvelope(scanID, pages), pretty)
	}
}
