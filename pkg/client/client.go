// Package client is the admin-side HTTP client of the staging protocol and
// the file archive listing.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"qbank-admin/pkg/readcache"
	"qbank-admin/pkg/staging"
)

// envelope is the response wrapper every backend endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
	files   *readcache.Store[*FilePage]
}

type Option func(*config)

type config struct {
	token    string
	http     *http.Client
	logger   *zap.Logger
	epoch    readcache.Epoch
	cacheTTL time.Duration
}

func WithToken(token string) Option {
	return func(c *config) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *config) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithEpoch keys the listing cache under epoch, usually a readcache.Navigator.
func WithEpoch(e readcache.Epoch) Option {
	return func(c *config) { c.epoch = e }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) { c.cacheTTL = ttl }
}

func New(baseURL string, opts ...Option) *Client {
	cfg := config{
		http:     &http.Client{},
		logger:   zap.NewNop(),
		cacheTTL: readcache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.token,
		http:    cfg.http,
		logger:  cfg.logger,
		files:   readcache.New[*FilePage](cfg.epoch, readcache.WithTTL(cfg.cacheTTL), readcache.WithLogger(cfg.logger)),
	}
}

// FileCache exposes the listing cache so mutations can invalidate it.
func (c *Client) FileCache() *readcache.Store[*FilePage] {
	return c.files
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends req and decodes the envelope data into out. notFound is the
// sentinel a 404 or 410 maps to for this endpoint.
func (c *Client) do(req *http.Request, notFound error, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &staging.RemoteError{Kind: staging.ErrTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug("request failed", zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return &staging.RemoteError{Kind: kindOf(resp.StatusCode, notFound), Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: "decode response: " + decodeErr.Error()}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: "decode data: " + err.Error()}
	}
	return nil
}

func kindOf(status int, notFound error) error {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return staging.ErrValidation
	case http.StatusUnprocessableEntity:
		return staging.ErrParse
	case http.StatusNotFound, http.StatusGone:
		if notFound != nil {
			return notFound
		}
	}
	return staging.ErrTransport
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, onUpload func(sent, total int64), notFound error, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	var body io.Reader = bytes.NewReader(raw)
	if onUpload != nil {
		body = &countingReader{r: body, total: int64(len(raw)), report: onUpload}
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(raw))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, notFound, out)
}

// countingReader reports how much of the request body the transport has read.
type countingReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.sent += int64(n)
		r.report(r.sent, r.total)
	}
	return n, err
}
