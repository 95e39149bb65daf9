package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/dcervantes/facturas-sync/internal/common"
	"github.com/dcervantes/facturas-sync/internal/extract"
	"github.com/dcervantes/facturas-sync/internal/ocr"
)

// extract-fields runs OCR/PDF text extraction plus the field extractor on
// one local file and prints the recovered fields as JSON. Debugging aid
// for tuning extraction against new invoice layouts.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extract-fields <invoice.pdf|jpg|png>")
		os.Exit(2)
	}
	path := os.Args[1]

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text, err := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger).ExtractText(ctx, content, filepath.Ext(path))
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	fields := extract.NewExtractor(logger).Extract(text)

	out, err := json.MarshalIndent(map[string]any{
		"date":        fields.Date,
		"amount":      fields.Amount,
		"provider":    fields.Provider,
		"description": fields.Description,
		"fiscalFolio": fields.FiscalFolio,
		"confidence":  fields.Confidence,
	}, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
