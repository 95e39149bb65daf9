// Package syncer reconciles the file store against the structured store:
// it repairs stale links, backfills fields on suspicious records and
// creates records for orphaned files. A run holds no state between
// invocations; every mutation is pushed immediately to the owning store.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dcervantes/facturas-sync/constants"
	"github.com/dcervantes/facturas-sync/internal/entity"
	"github.com/dcervantes/facturas-sync/internal/extract"
	"github.com/dcervantes/facturas-sync/internal/match"
	"github.com/dcervantes/facturas-sync/internal/store"
)

// Config holds behavior flags for a sync run.
type Config struct {
	// FolderPath is the file-store folder holding the invoices.
	FolderPath string

	// LegacyFolderPath is consulted when FolderPath lists empty. Empty
	// disables the fallback.
	LegacyFolderPath string

	// DeepRepair re-extracts fields for matched records whose amount is
	// unset. Best effort; failures never block the run.
	DeepRepair bool
}

// TextExtractor turns downloaded bytes into raw text for re-extraction.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, ext string) (string, error)
}

// Failure is one skipped per-item operation. Failures are collected, never
// thrown past the loop boundary.
type Failure struct {
	Stage string // "repair" | "recover"
	Key   string // invoice id or file name
	Err   string
}

// Summary is the outcome of one run, returned even on partial failure.
type Summary struct {
	FixedLinks     int
	OrphansCreated int
	RepairedFields int
	Failures       []Failure
}

type Syncer struct {
	files   store.FileStore
	records store.RecordStore
	text    TextExtractor
	fields  *extract.Extractor
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// New wires a Syncer. text may be nil, which disables deep repair.
func New(files store.FileStore, records store.RecordStore, text TextExtractor, fields *extract.Extractor, cfg Config, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if fields == nil {
		fields = extract.NewExtractor(logger)
	}
	return &Syncer{
		files:   files,
		records: records,
		text:    text,
		fields:  fields,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one reconciliation pass. Only a total fetch failure is
// fatal; every per-item failure is recorded in the summary and skipped.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	start := s.now()
	s.logger.Info("sync.start", "folder", s.cfg.FolderPath)

	var invoices []entity.InvoiceRecord
	var files []entity.StoredFile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.records.ListRecords(gctx)
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		files, err = s.listFiles(gctx)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("sync fetch: %w", err)
	}

	var summary Summary

	// Claim + repair pass. The seen set must be complete before the
	// orphan pass starts.
	seen := make(map[string]struct{}, len(files))
	for _, inv := range invoices {
		file, ok := match.BestFileFor(inv, files)
		if !ok {
			continue
		}
		seen[file.ID] = struct{}{}
		if err := s.repair(ctx, inv, file, &summary); err != nil {
			summary.Failures = append(summary.Failures, Failure{Stage: "repair", Key: invoiceKey(inv), Err: err.Error()})
			s.logger.Error("sync.repair.failed", "invoice", invoiceKey(inv), "file", file.Name, "error", err)
		}
	}

	// Orphan pass: unclaimed, visible files with an accepted extension
	// become fresh records.
	for _, f := range files {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		if constants.IsHidden(f.Name) || !constants.AllowedExt(filepath.Ext(f.Name)) {
			continue
		}
		if err := s.recover(ctx, f); err != nil {
			summary.Failures = append(summary.Failures, Failure{Stage: "recover", Key: f.Name, Err: err.Error()})
			s.logger.Error("sync.recover.failed", "file", f.Name, "error", err)
			continue
		}
		summary.OrphansCreated++
	}

	s.logger.Info("sync.ok",
		"fixed_links", summary.FixedLinks,
		"orphans_created", summary.OrphansCreated,
		"repaired_fields", summary.RepairedFields,
		"failures", len(summary.Failures),
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
	)
	return summary, nil
}

// listFiles lists the configured folder, consulting the legacy folder only
// when the primary one is empty.
func (s *Syncer) listFiles(ctx context.Context) ([]entity.StoredFile, error) {
	files, err := s.files.List(ctx, s.cfg.FolderPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 && s.cfg.LegacyFolderPath != "" {
		legacy, err := s.files.List(ctx, s.cfg.LegacyFolderPath)
		if err != nil {
			return nil, err
		}
		if len(legacy) > 0 {
			s.logger.Warn("sync.legacy_folder", "folder", s.cfg.LegacyFolderPath, "files", len(legacy))
			return legacy, nil
		}
	}
	return files, nil
}

// repair refreshes the invoice's share link and, when enabled, re-extracts
// fields for records with an unset amount.
func (s *Syncer) repair(ctx context.Context, inv entity.InvoiceRecord, file entity.StoredFile, summary *Summary) error {
	link, err := s.files.ShareLink(ctx, file.Path)
	if err != nil {
		return fmt.Errorf("share link: %w", err)
	}

	if inv.ID != "" && inv.FileURL != link {
		if err := s.records.UpdateRecordURL(ctx, inv.ID, link); err != nil {
			return fmt.Errorf("update url: %w", err)
		}
		summary.FixedLinks++
		s.logger.Info("sync.link_fixed", "invoice", invoiceKey(inv), "file", file.Name)
	}

	if s.cfg.DeepRepair && inv.ID != "" && !inv.HasAmount() {
		patched, err := s.deepRepair(ctx, inv, file)
		if err != nil {
			return fmt.Errorf("deep repair: %w", err)
		}
		if patched {
			summary.RepairedFields++
		}
	}
	return nil
}

// deepRepair downloads the matched file, re-runs text extraction and
// patches the record when a positive amount comes back. The date is only
// patched when the record had none.
func (s *Syncer) deepRepair(ctx context.Context, inv entity.InvoiceRecord, file entity.StoredFile) (bool, error) {
	if s.text == nil {
		return false, nil
	}
	ext := constants.NormalizeExt(filepath.Ext(file.Name))
	switch ext {
	case "pdf", "jpg", "jpeg", "png":
	default:
		return false, nil
	}

	content, err := s.files.Download(ctx, file.Path)
	if err != nil {
		return false, fmt.Errorf("download: %w", err)
	}
	text, err := s.text.ExtractText(ctx, content, ext)
	if err != nil {
		return false, fmt.Errorf("extract text: %w", err)
	}

	fields := s.fields.Extract(text)
	if fields.Amount <= 0 {
		return false, nil
	}

	patch := store.FieldPatch{Amount: &fields.Amount}
	if inv.Date == "" && fields.Date != "" {
		patch.Date = &fields.Date
	}
	if err := s.records.UpdateRecordFields(ctx, inv.ID, patch); err != nil {
		return false, fmt.Errorf("update fields: %w", err)
	}
	s.logger.Info("sync.fields_repaired", "invoice", invoiceKey(inv), "amount", fields.Amount)
	return true, nil
}

// recover creates a record for an unclaimed file. The base name becomes
// the fiscal folio so the next run claims the file by folio equality.
func (s *Syncer) recover(ctx context.Context, f entity.StoredFile) error {
	link, err := s.files.ShareLink(ctx, f.Path)
	if err != nil {
		return fmt.Errorf("share link: %w", err)
	}

	rec := entity.InvoiceRecord{
		Date:        f.ModifiedAt.UTC().Format("2006-01-02"),
		Amount:      0,
		Provider:    constants.RecoveredProvider,
		Description: constants.RecoveredDescription,
		FiscalFolio: constants.BaseName(f.Name),
		FileURL:     link,
		Status:      constants.StatusCompleted,
		CreatedAt:   f.ModifiedAt,
		UpdatedAt:   s.now().UTC(),
	}
	id, err := s.records.CreateRecord(ctx, rec)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	s.logger.Info("sync.orphan_recovered", "file", f.Name, "record_id", id)
	return nil
}

func invoiceKey(inv entity.InvoiceRecord) string {
	if inv.ID != "" {
		return inv.ID
	}
	if inv.FiscalFolio != "" {
		return inv.FiscalFolio
	}
	return inv.Provider
}
