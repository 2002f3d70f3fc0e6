package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/instaflan/web/validators"
)

// Client calls the remote InstaFlan REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Body   any
	// Public skips the bearer token (login, register).
	Public bool
	// ErrorMessage prefixes the generic status error.
	ErrorMessage string
}

// Do performs the request and decodes a successful JSON body into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return errors.Wrap(err, "encoding request body failed")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return errors.Wrap(err, "building request failed")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-store")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if !req.Public {
		token, ok := TokenFrom(ctx)
		if !ok {
			return ErrUnauthenticated
		}
		if err := validators.ValidateToken(token); err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, errorContext(req))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrapf(err, "decoding %s response failed", req.Path)
		}
		return nil
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == "" {
			return &StatusError{Context: errorContext(req), Status: resp.StatusCode}
		}
		return &APIError{Message: payload.Error}
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrSessionExpired
	default:
		return &StatusError{Context: errorContext(req), Status: resp.StatusCode}
	}
}

func errorContext(req Request) string {
	if req.ErrorMessage != "" {
		return req.ErrorMessage
	}
	return "Unexpected error calling " + req.Path
}
