package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/dcervantes/facturas-sync/internal/common"
	"github.com/dcervantes/facturas-sync/internal/extract"
	"github.com/dcervantes/facturas-sync/internal/ocr"
	"github.com/dcervantes/facturas-sync/internal/store/dropbox"
	"github.com/dcervantes/facturas-sync/internal/store/notion"
	"github.com/dcervantes/facturas-sync/internal/syncer"
)

func main() {
	var (
		folder  = flag.String("folder", "", "file-store folder to reconcile (overrides INVOICES_FOLDER)")
		deep    = flag.Bool("deep", true, "re-extract fields for records with amount 0")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *folder != "" {
		cfg.Sync.FolderPath = *folder
	}
	cfg.Sync.DeepRepair = *deep

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	schema := notion.DefaultSchemaMap()
	if cfg.Records.SchemaPath != "" {
		var err error
		schema, err = notion.LoadSchemaMap(cfg.Records.SchemaPath)
		if err != nil {
			logger.Error("load schema map", "path", cfg.Records.SchemaPath, "error", err)
			os.Exit(1)
		}
	}

	records, err := notion.New(notion.Config{
		APIKey:     cfg.Records.APIKey,
		DatabaseID: cfg.Records.DatabaseID,
		Schema:     schema,
		Timeout:    cfg.Records.Timeout,
	}, logger)
	if err != nil {
		logger.Error("record store client", "error", err)
		os.Exit(1)
	}

	files := dropbox.New(dropbox.Config{
		AccessToken:  cfg.FileStore.AccessToken,
		AppKey:       cfg.FileStore.AppKey,
		AppSecret:    cfg.FileStore.AppSecret,
		RefreshToken: cfg.FileStore.RefreshToken,
		Timeout:      cfg.FileStore.Timeout,
	}, logger)

	text := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	s := syncer.New(files, records, text, extract.NewExtractor(logger), syncer.Config{
		FolderPath:       cfg.Sync.FolderPath,
		LegacyFolderPath: cfg.Sync.LegacyFolderPath,
		DeepRepair:       cfg.Sync.DeepRepair,
	}, logger)

	summary, err := s.Run(ctx)
	if err != nil {
		logger.Error("sync run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("fixed links: %d, orphans recovered: %d, repaired fields: %d, failures: %d\n",
		summary.FixedLinks, summary.OrphansCreated, summary.RepairedFields, len(summary.Failures))
	for _, f := range summary.Failures {
		fmt.Printf("  skipped %s %q: %s\n", f.Stage, f.Key, f.Err)
	}
}
