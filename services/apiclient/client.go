// Package apiclient talks to the Kiam REST API.
// One call is one request: there is no retry, no backoff and no timeout other than the caller's context.
package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/paging"
)

// TokenSource provides the credentials attached to every request.
type TokenSource interface {
	// Token returns the token type (e.g. "bearer") and the access token; ok is false when logged out.
	Token() (tokenType, token string, ok bool)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client // defaults to http.DefaultClient
	Tokens     TokenSource
	Logger     core.Logger
}

type Client struct {
	baseURL string
	rest    *rest.Client
	tokens  TokenSource
	logger  core.Logger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: httpClient},
		tokens:  opts.Tokens,
		logger:  logger,
	}
}

// SetTokens replaces the token source, e.g. once a session manager exists.
func (c *Client) SetTokens(tokens TokenSource) { c.tokens = tokens }

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// Do sends one JSON request. body may be nil; out may be nil to discard the response.
func (c *Client) Do(ctx context.Context, method rest.Method, endpoint string, params map[string]string, body, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.url(endpoint),
		QueryParams: params,
		Headers: map[string]string{
			"Accept":       "application/json",
			"X-Request-Id": uuid.New().String(),
		},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}
	if c.tokens != nil {
		if typ, token, ok := c.tokens.Token(); ok {
			req.Headers["Authorization"] = authScheme(typ) + " " + token
		}
	}

	c.logger.Debug("api request", map[string]interface{}{
		"method":     string(method),
		"endpoint":   endpoint,
		"request_id": req.Headers["X-Request-Id"],
	})

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &Error{Method: string(method), Endpoint: endpoint, Kind: KindNetworkUnavailable, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &Error{
			Method:   string(method),
			Endpoint: endpoint,
			Status:   res.StatusCode,
			Kind:     KindForStatus(res.StatusCode),
			Body:     res.Body,
		}
	}
	if out == nil || res.StatusCode == http.StatusNoContent || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, endpoint)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	return c.Do(ctx, rest.Get, endpoint, params, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, rest.Post, endpoint, nil, body, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, rest.Put, endpoint, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, rest.Patch, endpoint, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Do(ctx, rest.Delete, endpoint, nil, nil, nil)
}

// GetPage fetches one page of a paginated list endpoint.
func GetPage[T any](ctx context.Context, c *Client, endpoint string, page, limit int, params map[string]string) (paging.Page[T], error) {
	q := make(map[string]string, len(params)+2)
	for k, v := range params {
		q[k] = v
	}
	q["page"] = strconv.Itoa(page)
	q["limit"] = strconv.Itoa(limit)

	var p paging.Page[T]
	if err := c.Get(ctx, endpoint, q, &p); err != nil {
		return paging.Page[T]{}, err
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return p, nil
}

// GetAll walks every page of a list endpoint.
func GetAll[T any](ctx context.Context, c *Client, endpoint string, limit int, params map[string]string) ([]T, error) {
	return paging.Collect(ctx, limit, func(ctx context.Context, page, limit int) (paging.Page[T], error) {
		return GetPage[T](ctx, c, endpoint, page, limit, params)
	})
}

func authScheme(tokenType string) string {
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		return "Bearer"
	}
	return tokenType
}
