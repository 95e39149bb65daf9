package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcervantes/facturas-sync/internal/store"
)

// apiError is a non-2xx response from the file store, keeping the raw body
// so callers can inspect provider error tags.
type apiError struct {
	Status  int
	Summary string
	Body    []byte
}

func (e *apiError) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("dropbox: status %d: %s", e.Status, e.Summary)
	}
	return fmt.Sprintf("dropbox: status %d", e.Status)
}

// Unwrap maps provider failures onto the store error taxonomy.
func (e *apiError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || strings.Contains(e.Summary, "expired_access_token") || strings.Contains(e.Summary, "invalid_access_token") {
		return store.ErrAuthExpired
	}
	if strings.Contains(e.Summary, "not_found") {
		return store.ErrNotFound
	}
	return nil
}

func newAPIError(status int, body []byte) *apiError {
	var payload struct {
		ErrorSummary string `json:"error_summary"`
	}
	_ = json.Unmarshal(body, &payload)
	return &apiError{Status: status, Summary: payload.ErrorSummary, Body: body}
}

// postJSON sends a JSON RPC request and returns the raw response body.
func (c *Client) postJSON(ctx context.Context, url string, body any, token string) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(req)
}

// postContent sends a content-endpoint request: the JSON argument travels
// in the Dropbox-API-Arg header, the body carries the file bytes.
func (c *Client) postContent(ctx context.Context, url string, arg any, content io.Reader, token string) ([]byte, error) {
	argBytes, err := json.Marshal(arg)
	if err != nil {
		return nil, fmt.Errorf("encode arg: %w", err)
	}
	if content == nil {
		content = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, content)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Dropbox-API-Arg", string(argBytes))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	c.logger.Debug("store.http.request", "req_id", reqID, "url", req.URL.Path)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("store.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("store.http.body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("store.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, newAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}
