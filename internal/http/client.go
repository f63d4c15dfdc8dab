// Package http is the transport used by the records package: one Client per
// credential, every request gated by the client's rate limiter and classified
// into the airrecord error taxonomy.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
)

// Client is an API client bound to one credential.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
	logger     airrecord.Logger
	debug      bool
	userAgent  string
	limiter    *airrecord.RateLimiter
	metrics    *airrecord.MetricsCollector
	chain      *airrecord.InterceptorChain
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("%w: %w", airrecord.ErrMalformedResponse, err)
	}

	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger airrecord.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets transport retries for 5xx and connection errors. Each
// retry waits for a token from the client's rate limiter.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRateLimiter gates every request on limiter.
func WithRateLimiter(limiter *airrecord.RateLimiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithMetrics records per-endpoint statistics into collector.
func WithMetrics(collector *airrecord.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// NewClient creates a client for baseURL authenticating with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: retryClient,
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil && client.debug {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	retryClient.CheckRetry = retryPolicy
	if client.limiter != nil {
		// The first attempt takes its token in the interceptor chain.
		retryClient.PrepareRetry = func(req *http.Request) error {
			return client.limiter.Acquire(req.Context())
		}
	}

	client.chain = client.buildChain()

	return client
}

// retryPolicy retries connection errors and 5xx responses. A 429 is returned
// to the caller as is; the limiter keeps requests under the ceiling.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) buildChain() *airrecord.InterceptorChain {
	chain := airrecord.NewInterceptorChain()

	if c.limiter != nil {
		chain.AddRequestInterceptor(airrecord.RateLimitInterceptor(c.limiter))
	}

	if c.apiKey != "" {
		chain.AddRequestInterceptor(airrecord.AuthenticationInterceptor(c.apiKey))
	}

	chain.AddRequestInterceptor(airrecord.HeaderInterceptor(map[string]string{
		"User-Agent": c.userAgent,
		"Accept":     "application/json",
	}))

	if c.metrics != nil {
		chain.AddRequestInterceptor(airrecord.MetricsRequestInterceptor(c.metrics))
		chain.AddResponseInterceptor(airrecord.MetricsResponseInterceptor(c.metrics))
	}

	if c.logger != nil && c.debug {
		chain.AddRequestInterceptor(airrecord.LoggingInterceptor(c.logger))
		chain.AddResponseInterceptor(airrecord.LoggingResponseInterceptor(c.logger))
	}

	return chain
}

// RateLimiter returns the limiter gating this client, or nil.
func (c *Client) RateLimiter() *airrecord.RateLimiter {
	return c.limiter
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request. Non-2xx responses are returned together with
// the classified error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	interceptReq := &airrecord.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header),
	}

	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		interceptReq.Body = bodyBytes
		interceptReq.Headers.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		interceptReq.Headers.Set(key, value)
	}

	err := c.chain.ExecuteRequestInterceptors(ctx, interceptReq)
	if err != nil {
		return nil, err
	}

	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var rawBody interface{}
	if interceptReq.Body != nil {
		rawBody = interceptReq.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = interceptReq.Headers

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.afterResponse(ctx, interceptReq, &airrecord.Response{Error: err})

		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	classified := airrecord.Classify(resp.StatusCode, resp.Body)

	c.afterResponse(ctx, interceptReq, &airrecord.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Error:      classified,
	})

	if classified != nil {
		return resp, classified
	}

	return resp, nil
}

func (c *Client) afterResponse(ctx context.Context, req *airrecord.Request, resp *airrecord.Response) {
	err := c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil && c.logger != nil {
		c.logger.Warn("response interceptor failed", map[string]interface{}{
			"path":  req.Path,
			"error": err.Error(),
		})
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// leveledLogger routes retryablehttp's messages through airrecord.Logger.
type leveledLogger struct {
	logger airrecord.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
