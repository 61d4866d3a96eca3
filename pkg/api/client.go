// Package api is the HTTP client for the Radiant backend's user endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/NicolasHaas/radiant/pkg/model"
	"github.com/NicolasHaas/radiant/pkg/version"
)

// DefaultBaseURL is the hosted backend.
const DefaultBaseURL = "https://radiantbackendnative.onrender.com"

const (
	registerPath = "/api/users/register"
	loginPath    = "/api/users/login"

	maxResponseBody = 1 << 20
)

// GenericMessage is shown when a failure carries no server message.
const GenericMessage = "Something went wrong. Please try again."

// ErrRequestFailed matches every *Error with errors.Is.
var ErrRequestFailed = errors.New("api: request failed")

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string // server-supplied "message", or the status text
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

// Is reports whether target is ErrRequestFailed.
func (e *Error) Is(target error) bool {
	return target == ErrRequestFailed
}

// Message returns the text to show a user for err: the server's message for
// backend rejections, GenericMessage otherwise.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client calls the backend. There is no retry; timeouts come from ctx or the
// configured http.Client.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New creates a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account. The confirm-password field is not sent.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	var u model.User
	if err := c.post(ctx, registerPath, reg, &u); err != nil {
		return nil, fmt.Errorf("api: register: %w", err)
	}
	return &u, nil
}

// Login exchanges credentials for the user's profile.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	var u model.User
	if err := c.post(ctx, loginPath, creds, &u); err != nil {
		return nil, fmt.Errorf("api: login: %w", err)
	}
	return &u, nil
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("backend request failed", "path", path, "request_id", requestID, "err", err)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("backend request", "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
