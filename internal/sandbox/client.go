// Package sandbox is a client for an E2B-style isolated code execution
// service: short-lived sessions that accept file uploads and run Python
// against them, returning captured stdout/stderr.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"claimcheck/internal/config"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.Sandbox) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// Session is one isolated execution environment. It is owned by the
// single analysis invocation that opened it and must be closed on every
// exit path.
type Session struct {
	client *Client
	ID     string
}

// Execution is the captured outcome of one code run.
type Execution struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Open creates a fresh sandbox session.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	var out struct {
		SandboxID string `json:"sandbox_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sandboxes", nil, "", &out); err != nil {
		return nil, fmt.Errorf("open sandbox: %w", err)
	}
	if out.SandboxID == "" {
		return nil, fmt.Errorf("open sandbox: no sandbox id in response")
	}
	slog.Debug("sandbox opened", "sandbox_id", out.SandboxID)
	return &Session{client: c, ID: out.SandboxID}, nil
}

// UploadFile writes r into the session filesystem under name.
func (s *Session) UploadFile(ctx context.Context, name string, r io.Reader) error {
	path := fmt.Sprintf("/sandboxes/%s/files?path=%s", s.ID, name)
	if err := s.client.do(ctx, http.MethodPut, path, r, "application/octet-stream", nil); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// RunCode executes Python source inside the session and returns the
// captured output. A non-zero exit code is not an error here; callers
// decide what a failed run means.
func (s *Session) RunCode(ctx context.Context, code string) (Execution, error) {
	body, err := json.Marshal(map[string]string{"language": "python", "code": code})
	if err != nil {
		return Execution{}, err
	}
	var out Execution
	path := fmt.Sprintf("/sandboxes/%s/code", s.ID)
	if err := s.client.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", &out); err != nil {
		return Execution{}, fmt.Errorf("run code: %w", err)
	}
	return out, nil
}

// Close tears the session down. It deliberately ignores the caller's
// context so that a cancelled evaluation still releases the remote
// session instead of orphaning it.
func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	path := fmt.Sprintf("/sandboxes/%s", s.ID)
	if err := s.client.do(ctx, http.MethodDelete, path, nil, "", nil); err != nil {
		return fmt.Errorf("close sandbox %s: %w", s.ID, err)
	}
	slog.Debug("sandbox closed", "sandbox_id", s.ID)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sandbox API status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
