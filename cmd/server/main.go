package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/logbookscan/internal/config"
	"github.com/JonMunkholm/logbookscan/internal/ingest"
	"github.com/JonMunkholm/logbookscan/internal/logbook"
	"github.com/JonMunkholm/logbookscan/internal/logging"
	"github.com/JonMunkholm/logbookscan/internal/ocr"
	"github.com/JonMunkholm/logbookscan/internal/rules"
	"github.com/JonMunkholm/logbookscan/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until it stops. Deferred cleanup runs
// before main decides the exit code.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"scan_max_concurrent", cfg.Scan.MaxConcurrent,
		"split_pages", cfg.Scan.SplitPages,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"storage_enabled", cfg.Storage.Enabled(),
		"ocr_enabled", cfg.OCR.Enabled,
	)

	r, err := rules.LoadOrDefault(cfg.Scan.RulesPath)
	if err != nil {
		return fmt.Errorf("load rules %q: %w", cfg.Scan.RulesPath, err)
	}
	slog.Info("rules loaded",
		"path", cfg.Scan.RulesPath,
		"fields", len(r.Fields()),
		"aliases", len(r.Aliases()),
		"max_header_rows", r.MaxHeaderRows(),
	)

	var opts []web.Option

	if cfg.Storage.Enabled() {
		fetcher, err := ingest.NewS3Fetcher(cfg.Storage, cfg.Scan.MaxPayloadSize)
		if err != nil {
			return fmt.Errorf("create s3 client: %w", err)
		}
		opts = append(opts, web.WithFetcher(fetcher))
	}

	if cfg.OCR.Enabled {
		tess, err := ocr.NewTesseract(cfg.OCR.Language)
		if err != nil {
			return fmt.Errorf("start tesseract (%s): %w", cfg.OCR.Language, err)
		}
		defer func() {
			if err := tess.Close(); err != nil {
				slog.Warn("close tesseract", "error", err)
			}
		}()
		opts = append(opts, web.WithRecognizer(tess))
	}

	server := web.NewServer(cfg, logbook.New(r), opts...)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := server.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for scans to complete", "active", active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	return server.Start()
}
