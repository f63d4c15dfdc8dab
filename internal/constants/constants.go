package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Remote API identity.
const (
	// DefaultEndpointURL is the root of the hosted REST API.
	DefaultEndpointURL = "https://api.airtable.com"

	// EndpointURLEnv overrides the endpoint when Config.BaseURL is empty.
	EndpointURLEnv = "AIRTABLE_ENDPOINT_URL"

	// APIKeyEnv is read by the CLI when no key is configured.
	APIKeyEnv = "AIRTABLE_API_KEY"

	// APIVersion is the first path segment of every request.
	APIVersion = "v0"

	// WebURL is the root of the browser-facing record URLs.
	WebURL = "https://airtable.com"

	// Version is reported in the default user agent.
	Version = "1.0.0"

	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "airrecord-go/" + Version
)

// Path segments.
const (
	// ListRecordsPath is appended to the table path for list queries.
	ListRecordsPath = "listRecords"

	// CommentsPath is appended to the record path for comments.
	CommentsPath = "comments"
)

// Throttling.
const (
	// DefaultRequestsPerSecond is the documented API ceiling. Exceeding it gets
	// a credential throttled for 30 seconds.
	DefaultRequestsPerSecond = 5
)

// Batching and pagination.
const (
	// BatchSize is the server-imposed ceiling on records per bulk request.
	BatchSize = 10

	// FirstMaxRecords is the maxRecords sent by First.
	FirstMaxRecords = 1
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are off unless configured.
const (
	// DefaultRetryMax is the default number of transport retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum backoff when retries are enabled.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum backoff when retries are enabled.
	DefaultRetryWaitMax = 30 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusNotFound marks a missing record.
	HTTPStatusNotFound = 404
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Sort directions.
const (
	// SortAscending sorts smallest first.
	SortAscending = "asc"

	// SortDescending sorts largest first.
	SortDescending = "desc"
)
