// Package files provides the blob storage client document uploads go
// through. Objects live under per-user prefixes on a plain HTTP object
// store.
package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/service"
)

// Config holds object store configuration.
type Config struct {
	// BaseURL is the root of the object store, e.g.
	// https://files.example.com/storage/v1/pennywise.
	BaseURL string
	// Token is sent as a bearer token on every request. Optional for
	// unauthenticated local stores.
	Token string
	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("file storage base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid file storage base URL: %w", err)
	}
	return nil
}

// Client implements the service.FileStore interface.
type Client struct {
	http    *http.Client
	logger  *slog.Logger
	baseURL string
	token   string
}

// NewClient creates a new object store client with the given
// configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}, nil
}

// ObjectPath builds the store path for a user's file. The timestamp
// prefix keeps repeated uploads of the same filename from colliding.
func ObjectPath(userID, filename string) string {
	return path.Join(userID, fmt.Sprintf("%d-%s", time.Now().UnixNano(), path.Base(filename)))
}

// Upload stores the object and returns its public URL.
func (c *Client) Upload(ctx context.Context, objectPath string, r io.Reader, size int64) (string, error) {
	target := c.objectURL(objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, r)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload of %s failed with status %d: %s", objectPath, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.Debug("Uploaded object", "path", objectPath, "size", size)
	return target, nil
}

// Remove deletes the object. Removing a missing object is not an
// error; the end state is the same.
func (c *Client) Remove(ctx context.Context, objectPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(objectPath), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete of %s failed with status %d", objectPath, resp.StatusCode)
	}
	return nil
}

func (c *Client) objectURL(objectPath string) string {
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(objectPath, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Ensure Client implements the FileStore interface.
var _ service.FileStore = (*Client)(nil)
