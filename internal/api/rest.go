package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultTimeout = 15 * time.Second

// RestClient talks to the commerce REST API. All paths are relative to the
// store-scoped prefix, e.g. Get(ctx, "V1/customers/me", &out) requests
// <base>/rest/<storeCode>/V1/customers/me.
type RestClient struct {
	baseURL   string
	storeCode string
	hc        *fasthttp.Client
	tokens    TokenSource
	timeout   time.Duration
}

// RestOption configures a RestClient.
type RestOption func(*RestClient)

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) RestOption {
	return func(c *RestClient) { c.hc = hc }
}

// WithTimeout sets the per-request timeout used when the context carries no
// deadline. There is deliberately no retry on top of it.
func WithTimeout(d time.Duration) RestOption {
	return func(c *RestClient) { c.timeout = d }
}

func NewRestClient(baseURL, storeCode string, opts ...RestOption) *RestClient {
	c := &RestClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		storeCode: strings.Trim(storeCode, "/"),
		hc:        &fasthttp.Client{},
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource wires the session's token into every subsequent request.
// It exists because the session manager itself is constructed on top of
// this client.
func (c *RestClient) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

type requestOptions struct {
	bearer   string
	skipAuth bool
}

// RequestOption tweaks a single request.
type RequestOption func(*requestOptions)

// WithBearer overrides the token source for one request.
func WithBearer(token string) RequestOption {
	return func(o *requestOptions) { o.bearer = token }
}

// WithoutAuth suppresses the Authorization header for one request.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

func (c *RestClient) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, fasthttp.MethodGet, path, nil, out, opts...)
}

func (c *RestClient) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, fasthttp.MethodPost, path, body, out, opts...)
}

func (c *RestClient) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, fasthttp.MethodPut, path, body, out, opts...)
}

func (c *RestClient) url(path string) string {
	return c.baseURL + "/rest/" + c.storeCode + "/" + strings.TrimLeft(path, "/")
}

func (c *RestClient) bearer(o requestOptions) string {
	if o.skipAuth {
		return ""
	}
	if o.bearer != "" {
		return o.bearer
	}
	if c.tokens != nil {
		return c.tokens.Token()
	}
	return ""
}

func (c *RestClient) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url(path))
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if token := c.bearer(o); token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		req.SetBody(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	if err := c.hc.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}

	status := resp.StatusCode()
	if status >= 400 {
		return decodeError(status, resp.Body())
	}

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
		}
	}
	return nil
}

type errorBody struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	Parameters []any  `json:"parameters"`
}

func decodeError(status int, body []byte) error {
	var eb errorBody
	// A non-JSON error body still yields a useful *Error.
	_ = json.Unmarshal(body, &eb)
	return &Error{
		Status:     status,
		Code:       eb.Code,
		Message:    eb.Message,
		Parameters: eb.Parameters,
		sentinel:   sentinelForStatus(status),
	}
}
