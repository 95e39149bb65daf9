// Package notion implements store.RecordStore against the Notion HTTP
// API. Property names come from an injected SchemaMap resolved once at
// construction (see schema.go).
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dcervantes/facturas-sync/constants"
	"github.com/dcervantes/facturas-sync/internal/entity"
	"github.com/dcervantes/facturas-sync/internal/store"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
	pageSize       = 100 // the store's query maximum
)

type Config struct {
	APIKey     string
	DatabaseID string
	Schema     SchemaMap // zero value -> DefaultSchemaMap
	Timeout    time.Duration
	BaseURL    string // overridable for tests
}

type Client struct {
	httpc  *http.Client
	base   string
	apiKey string
	dbID   string
	schema SchemaMap
	logger *slog.Logger
}

var _ store.RecordStore = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notion: api key is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("notion: database id is required")
	}
	if cfg.Schema == (SchemaMap{}) {
		cfg.Schema = DefaultSchemaMap()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		httpc:  &http.Client{Timeout: cfg.Timeout},
		base:   cfg.BaseURL,
		apiKey: cfg.APIKey,
		dbID:   cfg.DatabaseID,
		schema: cfg.Schema,
		logger: logger,
	}, nil
}

type richText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

func (r richText) content() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

type property struct {
	Title    []richText `json:"title"`
	RichText []richText `json:"rich_text"`
	Number   *float64   `json:"number"`
	URL      string     `json:"url"`
	Date     *struct {
		Start string `json:"start"`
	} `json:"date"`
	Select *struct {
		Name string `json:"name"`
	} `json:"select"`
}

type page struct {
	ID             string              `json:"id"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Properties     map[string]property `json:"properties"`
}

func (c *Client) toRecord(p page) entity.InvoiceRecord {
	props := p.Properties

	var folio string
	if t, ok := props[c.schema.Title]; ok && len(t.Title) > 0 {
		folio = t.Title[0].content()
	}

	rec := entity.InvoiceRecord{
		ID:          p.ID,
		Provider:    folio,
		FiscalFolio: folio,
		Status:      constants.StatusCompleted,
		CreatedAt:   p.CreatedTime,
		UpdatedAt:   p.LastEditedTime,
	}
	if d, ok := props[c.schema.Date]; ok && d.Date != nil {
		rec.Date = d.Date.Start
	}
	if n, ok := props[c.schema.Amount]; ok && n.Number != nil {
		rec.Amount = *n.Number
	}
	if u, ok := props[c.schema.URL]; ok {
		rec.FileURL = u.URL
	}
	if s, ok := props[c.schema.Status]; ok && s.Select != nil && s.Select.Name != "" {
		rec.Status = constants.RecordStatus(s.Select.Name)
	}
	if c.schema.Description != "" {
		if d, ok := props[c.schema.Description]; ok && len(d.RichText) > 0 {
			rec.Description = d.RichText[0].content()
		}
	}
	return rec
}

// ListRecords pages through the whole database, newest emission date
// first, and flattens the result.
func (c *Client) ListRecords(ctx context.Context) ([]entity.InvoiceRecord, error) {
	var records []entity.InvoiceRecord
	var cursor string

	for {
		body := map[string]any{
			"page_size": pageSize,
			"sorts": []map[string]string{
				{"property": c.schema.Date, "direction": "descending"},
			},
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/databases/%s/query", c.base, c.dbID), body)
		if err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}

		var resp struct {
			Results    []page `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode query response: %w", err)
		}
		for _, p := range resp.Results {
			records = append(records, c.toRecord(p))
		}
		if !resp.HasMore {
			return records, nil
		}
		cursor = resp.NextCursor
	}
}

// CreateRecord persists a new invoice page. The title falls back from
// folio to provider so recovered and failed extractions still get a
// readable name.
func (c *Client) CreateRecord(ctx context.Context, rec entity.InvoiceRecord) (string, error) {
	title := rec.FiscalFolio
	if title == "" {
		title = rec.Provider
	}
	if title == "" {
		title = "Factura"
	}

	props := map[string]any{
		c.schema.Title: map[string]any{
			"title": []map[string]any{
				{"text": map[string]string{"content": title}},
			},
		},
		c.schema.Amount: map[string]any{"number": rec.Amount},
		c.schema.URL:    map[string]any{"url": rec.FileURL},
	}
	if rec.Date != "" {
		props[c.schema.Date] = map[string]any{"date": map[string]string{"start": rec.Date}}
	}
	if rec.Status != "" {
		props[c.schema.Status] = map[string]any{"select": map[string]string{"name": string(rec.Status)}}
	}
	if c.schema.Description != "" && rec.Description != "" {
		props[c.schema.Description] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": rec.Description}},
			},
		}
	}

	raw, err := c.do(ctx, http.MethodPost, c.base+"/pages", map[string]any{
		"parent":     map[string]string{"database_id": c.dbID},
		"properties": props,
	})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) UpdateRecordURL(ctx context.Context, id, url string) error {
	_, err := c.do(ctx, http.MethodPatch, c.base+"/pages/"+id, map[string]any{
		"properties": map[string]any{
			c.schema.URL: map[string]any{"url": url},
		},
	})
	if err != nil {
		return fmt.Errorf("update page url: %w", err)
	}
	return nil
}

func (c *Client) UpdateRecordFields(ctx context.Context, id string, patch store.FieldPatch) error {
	props := map[string]any{}
	if patch.Amount != nil {
		props[c.schema.Amount] = map[string]any{"number": *patch.Amount}
	}
	if patch.Date != nil && *patch.Date != "" {
		props[c.schema.Date] = map[string]any{"date": map[string]string{"start": *patch.Date}}
	}
	if len(props) == 0 {
		return nil
	}

	_, err := c.do(ctx, http.MethodPatch, c.base+"/pages/"+id, map[string]any{
		"properties": props,
	})
	if err != nil {
		return fmt.Errorf("update page fields: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)

	reqID := uuid.New().String()
	start := time.Now()

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("store.http.send_error", "req_id", reqID, "error", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("store.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		if resp.StatusCode == http.StatusUnauthorized {
			return raw, fmt.Errorf("status %d: %w", resp.StatusCode, store.ErrAuthExpired)
		}
		if resp.StatusCode == http.StatusNotFound {
			return raw, fmt.Errorf("status %d: %w", resp.StatusCode, store.ErrNotFound)
		}
		return raw, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
