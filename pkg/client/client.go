// Package client calls the aquadash HTTP API. Every response is wrapped in
// an Envelope; failures come back as *TransportError or *ResponseError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:8080"

// Envelope is the body shape of every API response.
type Envelope[T any] struct {
	Message string `json:"message"`
	Results T      `json:"results"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the server at baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EndpointURL maps an API endpoint such as "logs" to its absolute URL.
func (c *Client) EndpointURL(endpoint string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + strings.TrimLeft(endpoint, "/")
	return u.String()
}

func Get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (Envelope[T], error) {
	return do[T](ctx, c, http.MethodGet, endpoint, query, nil)
}

func Post[T any](ctx context.Context, c *Client, endpoint string, payload any) (Envelope[T], error) {
	return do[T](ctx, c, http.MethodPost, endpoint, nil, payload)
}

func Put[T any](ctx context.Context, c *Client, endpoint string, payload any) (Envelope[T], error) {
	return do[T](ctx, c, http.MethodPut, endpoint, nil, payload)
}

func Patch[T any](ctx context.Context, c *Client, endpoint string, payload any) (Envelope[T], error) {
	return do[T](ctx, c, http.MethodPatch, endpoint, nil, payload)
}

func Delete[T any](ctx context.Context, c *Client, endpoint string, payload any) (Envelope[T], error) {
	return do[T](ctx, c, http.MethodDelete, endpoint, nil, payload)
}

func do[T any](ctx context.Context, c *Client, method, endpoint string, query url.Values, payload any) (Envelope[T], error) {
	var env Envelope[T]

	target := c.EndpointURL(endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return env, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return env, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Cancellation is the caller's doing, not a server problem.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return env, ctxErr
		}
		return env, newTransportError(method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, newTransportError(method, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, decodeResponseError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}

func decodeResponseError(status int, raw []byte) error {
	var body struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Results json.RawMessage `json:"results"`
	}
	respErr := &ResponseError{StatusCode: status}
	if err := json.Unmarshal(raw, &body); err != nil {
		return respErr
	}
	respErr.Code = body.Code
	respErr.Message = body.Message
	if len(body.Results) > 0 {
		var fields map[string][]string
		if err := json.Unmarshal(body.Results, &fields); err == nil {
			respErr.Results = fields
		}
	}
	return respErr
}

// IsValidation reports whether err is a 400 validation-error response.
func IsValidation(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.Code == "validation-error"
}
