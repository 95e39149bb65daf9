package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/dcervantes/facturas-sync/internal/common"
	"github.com/dcervantes/facturas-sync/internal/export"
	"github.com/dcervantes/facturas-sync/internal/store/notion"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "facturas.xlsx", "output XLSX file path")
		fromStr = flag.String("from", "", "from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()

	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Records.APIKey == "" || cfg.Records.DatabaseID == "" {
		printError("Error: NOTION_API_KEY and NOTION_DATABASE_ID are required\n")
		os.Exit(1)
	}

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

	workbook, stats, err := export.NewService(records, logger).ExportInvoicesXLSX(ctx, from, to)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		logger.Error("write workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s: %d invoices, total %.2f MXN, %d pending\n",
		*out, stats.Total, stats.TotalAmount, stats.Pending)
}
