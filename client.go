// Package jolokia is a client for the Jolokia JMX-over-HTTP protocol. Every
// call is a single bulk POST carrying a batch of operations.
//
// See https://jolokia.org/reference/html/protocol.html
package jolokia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/kroksys/jolokia/protocol"
	"go.uber.org/zap"
)

const contentType = "application/json"

// Client performs bulk requests against one Jolokia agent. It only holds
// immutable configuration and is safe for concurrent use.
type Client struct {
	baseURL     string
	username    string
	password    string
	useAuth     bool
	raiseErrors bool
	headers     http.Header
	httpClient  *http.Client
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// Enables HTTP Basic authentication.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
		c.useAuth = true
	}
}

// WithRaiseErrors makes Request fail with a *BatchError whenever at least
// one item of the batch reports a failure status.
func WithRaiseErrors(raise bool) Option {
	return func(c *Client) { c.raiseErrors = raise }
}

// Replaces the HTTP client used as transport. Timeouts, TLS and proxies are
// configured there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Add(key, value) }
}

// NewClient creates a client for the agent at baseURL, usually
// http://<host>:<port>/jolokia.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}
	if u.Port() != "" {
		_, port, err := net.SplitHostPort(u.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return nil, fmt.Errorf("invalid base URL %q: bad port %q", baseURL, port)
		}
	}

	c := &Client{
		baseURL:    baseURL,
		headers:    http.Header{},
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// BaseURL returns the agent URL the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends reqs as one bulk request and returns a stream with one result
// per request, in submission order.
//
// Invalid requests fail with a *protocol.ValidationError before anything is
// sent. HTTP failures are *TransportError, a body that does not match the
// batch is *protocol.ProtocolError. When the client raises errors and any item
// failed, no results are returned and the error is a *BatchError.
func (c *Client) Request(ctx context.Context, reqs ...protocol.Request) (*Results, error) {
	batch := protocol.BatchRequest(reqs)
	logger := c.logger.With(zap.String("batch_id", uuid.NewString()), zap.Int("requests", len(batch)))

	body, err := c.exchange(ctx, batch, logger)
	if err != nil {
		return nil, err
	}
	parsed, err := protocol.ParseBatchResponse(body, len(batch))
	if err != nil {
		logger.Error("Malformed bulk response", zap.Error(err))
		return nil, err
	}

	results := newResults(batch, parsed, logger)
	if !c.raiseErrors {
		return results, nil
	}

	// The whole batch has to be decoded before deciding whether to fail it.
	all, err := results.All()
	if err != nil {
		return nil, err
	}
	if err := collectErrors(all); err != nil {
		logger.Debug("Batch contains failed items", zap.Int("failed", len(err.Errors)))
		return nil, err
	}
	return newDecodedResults(all), nil
}

// FetchJSON sends reqs as one bulk request and returns the raw JSON body
// without decoding it.
func (c *Client) FetchJSON(ctx context.Context, reqs ...protocol.Request) (json.RawMessage, error) {
	batch := protocol.BatchRequest(reqs)
	logger := c.logger.With(zap.String("batch_id", uuid.NewString()), zap.Int("requests", len(batch)))
	body, err := c.exchange(ctx, batch, logger)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Version returns the agent and protocol version of the agent.
func (c *Client) Version(ctx context.Context) (*protocol.VersionInfo, error) {
	req, err := protocol.NewRequest(protocol.Version)
	if err != nil {
		return nil, err
	}
	results, err := c.Request(ctx, req)
	if err != nil {
		return nil, err
	}
	all, err := results.All()
	if err != nil {
		return nil, err
	}
	resp := all[0]
	if !resp.OK() {
		return nil, newRemoteError(resp, 0)
	}
	info, err := protocol.DecodeVersion(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode version: %w", err)
	}
	return info, nil
}

// Encodes the batch, posts it and returns the response body of a 2xx reply.
func (c *Client) exchange(ctx context.Context, batch protocol.BatchRequest, logger *zap.Logger) ([]byte, error) {
	data, err := batch.Encode()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for key, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", contentType)
	if c.useAuth {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	logger.Debug("Sending bulk request", zap.String("url", c.baseURL), zap.Int("bytes", len(data)))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		logger.Debug("Bulk request failed", zap.Error(err))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("Agent replied with HTTP error", zap.Int("status", resp.StatusCode))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: body}
	}
	logger.Debug("Received bulk response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return body, nil
}
