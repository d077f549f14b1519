package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// GraphQLClient executes the cart operations of the commerce GraphQL API.
type GraphQLClient struct {
	endpoint string
	hc       *fasthttp.Client
	tokens   TokenSource
	timeout  time.Duration
}

// GraphQLOption configures a GraphQLClient.
type GraphQLOption func(*GraphQLClient)

// WithGraphQLHTTPClient replaces the underlying fasthttp client.
func WithGraphQLHTTPClient(hc *fasthttp.Client) GraphQLOption {
	return func(c *GraphQLClient) { c.hc = hc }
}

// WithGraphQLTimeout sets the fallback per-request timeout.
func WithGraphQLTimeout(d time.Duration) GraphQLOption {
	return func(c *GraphQLClient) { c.timeout = d }
}

func NewGraphQLClient(endpoint string, opts ...GraphQLOption) *GraphQLClient {
	c := &GraphQLClient{
		endpoint: endpoint,
		hc:       &fasthttp.Client{},
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource wires the session's token into every subsequent request.
func (c *GraphQLClient) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Category string `json:"category"`
	} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Execute posts the operation and decodes the response's data object into
// out. The first GraphQL-level error, if any, is mapped onto the sentinel
// taxonomy and returned as *Error with Status 0.
func (c *GraphQLClient) Execute(ctx context.Context, query string, variables map[string]any, out any, opts ...RequestOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encoding graphql request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if token := c.bearer(o); token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	if err := c.hc.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: graphql: %v", ErrUnavailable, err)
	}

	if status := resp.StatusCode(); status >= 400 {
		return decodeError(status, resp.Body())
	}

	var gr gqlResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}

	if len(gr.Errors) > 0 {
		first := gr.Errors[0]
		return &Error{
			Code:     first.Extensions.Category,
			Message:  first.Message,
			sentinel: sentinelForCategory(first.Extensions.Category),
		}
	}

	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("decoding graphql data: %w", err)
		}
	}
	return nil
}

func (c *GraphQLClient) bearer(o requestOptions) string {
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
