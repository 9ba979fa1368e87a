package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Gateway is the single call site for the Mailforge API. It presents the
// session token on every request and forgets it on any 401.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway creates a gateway for the API rooted at baseURL, e.g. http://localhost:8080/api.
func NewGateway(baseURL string, session *Session, opts ...Option) *Gateway {
	if session == nil {
		session = NewSession("")
	}
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the session the gateway authenticates with.
func (g *Gateway) Session() *Session {
	return g.session
}

// Do sends one request and decodes the normalized payload into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (Envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := g.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	g.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		g.session.Clear()
	}

	env, err := Normalize(raw)
	if err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return Envelope{}, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
		}
		return Envelope{}, err
	}

	if env.Kind == KindError || resp.StatusCode >= http.StatusBadRequest {
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return env, &APIError{Status: resp.StatusCode, Message: message, Code: env.Code}
	}

	if err := env.Decode(out); err != nil {
		return env, err
	}
	return env, nil
}

func (g *Gateway) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	_, err := g.Do(ctx, http.MethodGet, path, query, nil, out)
	return err
}

func (g *Gateway) post(ctx context.Context, path string, body, out interface{}) error {
	_, err := g.Do(ctx, http.MethodPost, path, nil, body, out)
	return err
}

func (g *Gateway) put(ctx context.Context, path string, body, out interface{}) error {
	_, err := g.Do(ctx, http.MethodPut, path, nil, body, out)
	return err
}

func (g *Gateway) delete(ctx context.Context, path string, out interface{}) error {
	_, err := g.Do(ctx, http.MethodDelete, path, nil, nil, out)
	return err
}
