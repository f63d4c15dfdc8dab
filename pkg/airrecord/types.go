package airrecord

import (
	"maps"
)

// Fields maps field names to JSON-compatible values.
type Fields map[string]interface{}

// Clone returns a shallow copy. Nil stays nil.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}

	return maps.Clone(f)
}

// RecordPayload is a single record as returned by the store.
type RecordPayload struct {
	ID          string `json:"id,omitempty"          yaml:"id,omitempty"`
	CreatedTime string `json:"createdTime,omitempty" yaml:"createdTime,omitempty"`
	Fields      Fields `json:"fields"                yaml:"fields"`
}

// Sort orders list results by one field.
type Sort struct {
	Field     string `json:"field"               yaml:"field"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// ListRecordsRequest is the listRecords body. Only supplied options are sent.
type ListRecordsRequest struct {
	FilterByFormula string   `json:"filterByFormula,omitempty"`
	Sort            []Sort   `json:"sort,omitempty"`
	View            string   `json:"view,omitempty"`
	Offset          string   `json:"offset,omitempty"`
	Fields          []string `json:"fields,omitempty"`
	MaxRecords      int      `json:"maxRecords,omitempty"`
	PageSize        int      `json:"pageSize,omitempty"`
}

// ListRecordsResponse is one page of listRecords.
type ListRecordsResponse struct {
	Records []RecordPayload `json:"records"`
	Offset  string          `json:"offset,omitempty"`
}

// PerformUpsert selects the fields an upsert matches existing rows on.
type PerformUpsert struct {
	FieldsToMergeOn []string `json:"fieldsToMergeOn"`
}

// UpsertResponse is the body of a batch upsert.
type UpsertResponse struct {
	CreatedRecords []string        `json:"createdRecords"`
	UpdatedRecords []string        `json:"updatedRecords"`
	Records        []RecordPayload `json:"records"`
}

// BatchResponse is the body of a batch create or update.
type BatchResponse struct {
	Records []RecordPayload `json:"records"`
}

// DeleteResponse is the body of a single delete.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// CommentRequest is the body of a comment create.
type CommentRequest struct {
	Text string `json:"text"`
}

// CommentResponse is the created comment.
type CommentResponse struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime,omitempty"`
	Text        string `json:"text,omitempty"`
}

// WriteOption adds extra top-level keys to a write body.
type WriteOption func(body map[string]interface{})

// WithTypecast asks the store to coerce string values into the column type.
func WithTypecast() WriteOption {
	return func(body map[string]interface{}) {
		body["typecast"] = true
	}
}

// WithReturnFieldsByFieldID keys returned fields by field id instead of name.
func WithReturnFieldsByFieldID() WriteOption {
	return func(body map[string]interface{}) {
		body["returnFieldsByFieldId"] = true
	}
}

// WithBodyOption sets an arbitrary top-level key on the write body.
func WithBodyOption(key string, value interface{}) WriteOption {
	return func(body map[string]interface{}) {
		body[key] = value
	}
}

// BuildWriteBody merges opts into body and returns it.
func BuildWriteBody(body map[string]interface{}, opts ...WriteOption) map[string]interface{} {
	if body == nil {
		body = make(map[string]interface{})
	}

	for _, opt := range opts {
		if opt != nil {
			opt(body)
		}
	}

	return body
}
