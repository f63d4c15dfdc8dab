package airrecord

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// Error taxonomy. Every failure surfaced by the records package matches
// exactly one of ErrNotFound, ErrUnknownSubtype, ErrUsage or *APIError.
var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownSubtype    = errors.New("unknown subtype")
	ErrUsage             = errors.New("usage error")
	ErrMalformedResponse = errors.New("malformed response body")
)

// Usage errors, wrapped around ErrUsage.
var (
	ErrRecordExists         = fmt.Errorf("%w: record already exists (record has an id)", ErrUsage)
	ErrDestroyNewRecord     = fmt.Errorf("%w: unable to destroy new record", ErrUsage)
	ErrNewRecord            = fmt.Errorf("%w: record has not been saved yet", ErrUsage)
	ErrMissingBaseID        = fmt.Errorf("%w: table has no base id", ErrUsage)
	ErrMissingTableName     = fmt.Errorf("%w: table has no table name", ErrUsage)
	ErrMissingAPIKey        = fmt.Errorf("%w: table has no api key", ErrUsage)
	ErrMissingRecordID      = fmt.Errorf("%w: record id is required", ErrUsage)
	ErrMissingMergeFields   = fmt.Errorf("%w: upsert needs at least one field to merge on", ErrUsage)
	ErrTransactionActive    = fmt.Errorf("%w: transaction already in progress", ErrUsage)
	ErrSubtypeCycle         = fmt.Errorf("%w: subtype mapping leads back to a table already visited", ErrUsage)
	ErrRegistryConfigNeeded = fmt.Errorf("%w: config is required", ErrUsage)
)

// APIError is any non-2xx response other than 404.
type APIError struct {
	StatusCode int    `json:"status_code"       yaml:"status_code"`
	Type       string `json:"type,omitempty"    yaml:"type,omitempty"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	// Body holds the raw response body when it carried no error envelope.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" || e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Type, e.Message)
	}

	return fmt.Sprintf("HTTP %d: Communication error: %s", e.StatusCode, e.Body)
}

// errorEnvelope is the {"error": {...}} body. The error member is sometimes a
// bare type string.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Classify maps a status and raw body to the error taxonomy. 2xx statuses
// yield nil. Bodies that are not valid JSON are treated as carrying no detail.
func Classify(statusCode int, body []byte) error {
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	detail, ok := parseErrorDetail(body)

	if statusCode == http.StatusNotFound {
		if ok && detail.Message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, detail.Message)
		}

		return ErrNotFound
	}

	apiErr := &APIError{StatusCode: statusCode}
	if ok {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
	} else {
		apiErr.Body = string(body)
	}

	return apiErr
}

func parseErrorDetail(body []byte) (errorDetail, bool) {
	var envelope errorEnvelope

	err := json.Unmarshal(body, &envelope)
	if err != nil || len(envelope.Error) == 0 {
		return errorDetail{}, false
	}

	var detail errorDetail

	err = json.Unmarshal(envelope.Error, &detail)
	if err == nil && (detail.Type != "" || detail.Message != "") {
		return detail, true
	}

	var errorType string

	err = json.Unmarshal(envelope.Error, &errorType)
	if err == nil && errorType != "" {
		return errorDetail{Type: errorType}, true
	}

	return errorDetail{}, false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUsageError checks if the error reports local misuse.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrUsage)
}

// IsUnknownSubtype checks if strict subtype dispatch failed.
func IsUnknownSubtype(err error) bool {
	return errors.Is(err, ErrUnknownSubtype)
}

// IsAPIError checks if the error is a classified non-404 API failure.
func IsAPIError(err error) bool {
	apiErr := &APIError{}

	return errors.As(err, &apiErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	if IsNotFound(err) {
		return http.StatusNotFound
	}

	return 0
}
