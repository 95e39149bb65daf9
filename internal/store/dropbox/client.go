// Package dropbox implements store.FileStore against the Dropbox HTTP
// API. Every call runs under the refresh-once-replay-once auth policy: on
// token expiry the token is refreshed a single time and the failed
// operation replayed a single time before the error propagates.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dcervantes/facturas-sync/internal/entity"
	"github.com/dcervantes/facturas-sync/internal/store"
)

const (
	defaultAPIBase     = "https://api.dropboxapi.com/2"
	defaultContentBase = "https://content.dropboxapi.com/2"
	defaultAuthURL     = "https://api.dropbox.com/oauth2/token"
)

// Config holds credentials and endpoints. The base URLs are overridable
// for tests against httptest servers.
type Config struct {
	AccessToken  string
	AppKey       string
	AppSecret    string
	RefreshToken string
	Timeout      time.Duration

	APIBase     string
	ContentBase string
	AuthURL     string
}

type Client struct {
	httpc       *http.Client
	apiBase     string
	contentBase string
	token       *tokenSource
	logger      *slog.Logger
}

var _ store.FileStore = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.ContentBase == "" {
		cfg.ContentBase = defaultContentBase
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}

	httpc := &http.Client{Timeout: cfg.Timeout}

	var refresh RefreshFunc
	if cfg.RefreshToken != "" {
		refresh = oauthRefresh(httpc, cfg.AuthURL, cfg.AppKey, cfg.AppSecret, cfg.RefreshToken)
	}

	return &Client{
		httpc:       httpc,
		apiBase:     cfg.APIBase,
		contentBase: cfg.ContentBase,
		token:       newTokenSource(cfg.AccessToken, refresh),
		logger:      logger,
	}
}

// withAuth runs fn with the current token; on auth expiry it refreshes
// once and replays once.
func (c *Client) withAuth(ctx context.Context, fn func(token string) error) error {
	err := fn(c.token.Token())
	if err == nil || !errors.Is(err, store.ErrAuthExpired) {
		return err
	}
	c.logger.Warn("store.auth_expired, refreshing token")
	tok, rerr := c.token.Refresh(ctx)
	if rerr != nil {
		return fmt.Errorf("token refresh: %w", rerr)
	}
	return fn(tok)
}

type fileEntry struct {
	Tag            string `json:".tag"`
	ID             string `json:"id"`
	Name           string `json:"name"`
	PathDisplay    string `json:"path_display"`
	Size           int64  `json:"size"`
	ClientModified string `json:"client_modified"`
	ContentHash    string `json:"content_hash"`
}

func (e fileEntry) toStoredFile() entity.StoredFile {
	modified, _ := time.Parse(time.RFC3339, e.ClientModified)
	return entity.StoredFile{
		ID:          e.ID,
		Name:        e.Name,
		Path:        e.PathDisplay,
		ModifiedAt:  modified,
		ContentHash: e.ContentHash,
		Size:        e.Size,
	}
}

// List returns every file in folderPath, following pagination cursors
// until the store reports no more entries.
func (c *Client) List(ctx context.Context, folderPath string) ([]entity.StoredFile, error) {
	if folderPath == "/" {
		folderPath = "" // the store spells its root as the empty string
	}

	var files []entity.StoredFile
	err := c.withAuth(ctx, func(token string) error {
		files = files[:0]

		raw, err := c.postJSON(ctx, c.apiBase+"/files/list_folder", map[string]any{
			"path":      folderPath,
			"recursive": false,
		}, token)
		if err != nil {
			return err
		}

		for {
			var page struct {
				Entries []fileEntry `json:"entries"`
				Cursor  string      `json:"cursor"`
				HasMore bool        `json:"has_more"`
			}
			if err := json.Unmarshal(raw, &page); err != nil {
				return fmt.Errorf("decode listing: %w", err)
			}
			for _, e := range page.Entries {
				if e.Tag != "file" {
					continue
				}
				files = append(files, e.toStoredFile())
			}
			if !page.HasMore {
				return nil
			}
			raw, err = c.postJSON(ctx, c.apiBase+"/files/list_folder/continue", map[string]any{
				"cursor": page.Cursor,
			}, token)
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	var content []byte
	err := c.withAuth(ctx, func(token string) error {
		raw, err := c.postContent(ctx, c.contentBase+"/files/download", map[string]any{"path": path}, nil, token)
		if err != nil {
			return err
		}
		content = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// ShareLink returns the shared link for path, creating one when none
// exists. The store answers an "already exists" conflict with the
// existing link's metadata, which keeps the operation idempotent.
func (c *Client) ShareLink(ctx context.Context, path string) (string, error) {
	var link string
	err := c.withAuth(ctx, func(token string) error {
		raw, err := c.postJSON(ctx, c.apiBase+"/sharing/create_shared_link_with_settings", map[string]any{
			"path": path,
		}, token)
		if err != nil {
			var apiErr *apiError
			if errors.As(err, &apiErr) && strings.Contains(apiErr.Summary, "shared_link_already_exists") {
				if existing := existingLinkFromConflict(apiErr.Body); existing != "" {
					link = existing
					return nil
				}
				return c.listSharedLink(ctx, path, token, &link)
			}
			return err
		}

		var payload struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("decode share link: %w", err)
		}
		link = payload.URL
		return nil
	})
	if err != nil {
		return "", err
	}
	return link, nil
}

func (c *Client) listSharedLink(ctx context.Context, path, token string, out *string) error {
	raw, err := c.postJSON(ctx, c.apiBase+"/sharing/list_shared_links", map[string]any{
		"path":        path,
		"direct_only": true,
	}, token)
	if err != nil {
		return err
	}
	var payload struct {
		Links []struct {
			URL string `json:"url"`
		} `json:"links"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode shared links: %w", err)
	}
	if len(payload.Links) == 0 {
		return fmt.Errorf("no shared link for %q: %w", path, store.ErrNotFound)
	}
	*out = payload.Links[0].URL
	return nil
}

func existingLinkFromConflict(body []byte) string {
	var payload struct {
		Error struct {
			SharedLinkAlreadyExists struct {
				Metadata struct {
					URL string `json:"url"`
				} `json:"metadata"`
			} `json:"shared_link_already_exists"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error.SharedLinkAlreadyExists.Metadata.URL
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Upload stores content under a sanitized desiredName in folderPath,
// keeping the extension and letting the store rename on collision.
func (c *Client) Upload(ctx context.Context, content []byte, desiredName, folderPath string) (entity.StoredFile, error) {
	name := unsafeNameRe.ReplaceAllString(desiredName, "_")
	path := folderPath + "/" + name
	if folderPath == "" || folderPath == "/" {
		path = "/" + name
	}

	var uploaded entity.StoredFile
	err := c.withAuth(ctx, func(token string) error {
		raw, err := c.postContent(ctx, c.contentBase+"/files/upload", map[string]any{
			"path":       path,
			"mode":       "add",
			"autorename": true,
		}, bytes.NewReader(content), token)
		if err != nil {
			return err
		}
		var e fileEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("decode upload response: %w", err)
		}
		uploaded = e.toStoredFile()
		if uploaded.Path == "" {
			uploaded.Path = path
		}
		return nil
	})
	if err != nil {
		return entity.StoredFile{}, err
	}
	return uploaded, nil
}

func (c *Client) Delete(ctx context.Context, path string) (bool, error) {
	err := c.withAuth(ctx, func(token string) error {
		_, err := c.postJSON(ctx, c.apiBase+"/files/delete_v2", map[string]any{"path": path}, token)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) CreateFolder(ctx context.Context, path string) (bool, error) {
	err := c.withAuth(ctx, func(token string) error {
		_, err := c.postJSON(ctx, c.apiBase+"/files/create_folder_v2", map[string]any{
			"path":       path,
			"autorename": false,
		}, token)
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
