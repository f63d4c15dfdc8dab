package airrecord

import (
	"os"
	"strings"
	"time"

	"github.com/airrecord-go/airrecord/internal/constants"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config holds the process-wide defaults every table descriptor falls back
// to, plus transport settings for the per-credential API clients.
//
// # Throttling
//
// Each API key gets one client and one token bucket, so every table sharing
// a key is throttled jointly. The bucket defaults to the documented ceiling of
// five requests per second; RequestsPerSecond overrides it and
// DisableThrottle removes the bucket entirely.
//
// # Retries
//
// Requests are never retried unless RetryMax is set. Rate-limit responses are
// prevented by the bucket rather than retried.
type Config struct {
	// APIKey: default credential for tables that do not set their own.
	APIKey string
	// BaseID: default base for tables that do not set their own.
	BaseID string

	// BaseURL: API root. Falls back to $AIRTABLE_ENDPOINT_URL, then to
	// https://api.airtable.com.
	BaseURL string
	// UserAgent: overrides the default User-Agent header.
	UserAgent string

	// DisableThrottle: turns off client-side rate limiting.
	DisableThrottle bool
	// RequestsPerSecond: token bucket rate and capacity. Zero means the
	// documented ceiling.
	RequestsPerSecond float64

	// RetryMax: transport retries for 5xx and connection errors. Every retry
	// takes a rate limiter token; 429 is never retried. Zero (the default)
	// disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// HTTPTimeout: per-request timeout of the underlying HTTP client.
	HTTPTimeout time.Duration

	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// Metrics: optional per-endpoint request statistics.
	Metrics *MetricsCollector
}

// EndpointURL resolves the API root without a trailing slash.
func (c *Config) EndpointURL() string {
	endpoint := c.BaseURL
	if endpoint == "" {
		endpoint = os.Getenv(constants.EndpointURLEnv)
	}

	if endpoint == "" {
		endpoint = constants.DefaultEndpointURL
	}

	return strings.TrimSuffix(endpoint, "/")
}

// RateLimit returns the configured requests per second, or the ceiling.
func (c *Config) RateLimit() float64 {
	if c.RequestsPerSecond > 0 {
		return c.RequestsPerSecond
	}

	return constants.DefaultRequestsPerSecond
}

// Throttle reports whether outbound requests go through a token bucket.
func (c *Config) Throttle() bool {
	return !c.DisableThrottle
}

// EffectiveUserAgent returns the configured user agent or the default.
func (c *Config) EffectiveUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}

	return constants.DefaultUserAgent
}
