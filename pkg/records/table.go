package records

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/airrecord-go/airrecord/internal/constants"
	arhttp "github.com/airrecord-go/airrecord/internal/http"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
)

// TableConfig describes a table descriptor. Empty identity fields are
// inherited from Parent, then from the registry defaults.
type TableConfig struct {
	// Name labels the descriptor in logs and output. Defaults to TableName.
	Name      string
	BaseID    string
	TableName string
	APIKey    string
	Parent    *Table
}

// Table is a record type: remote identity, credential and optional subtype
// dispatch, plus every collection-level operation.
type Table struct {
	registry  *Registry
	name      string
	baseID    string
	tableName string
	apiKey    string
	parent    *Table
	subtypes  *subtypeConfig
}

// Variant creates a child descriptor that inherits identity from t.
func (t *Table) Variant(name string) *Table {
	return t.registry.NewTable(TableConfig{Name: name, Parent: t})
}

// Parent returns the descriptor t inherits from, or nil.
func (t *Table) Parent() *Table {
	return t.parent
}

// Name returns the descriptor label.
func (t *Table) Name() string {
	if t.name != "" {
		return t.name
	}

	return t.TableName()
}

// BaseID returns the resolved base id.
func (t *Table) BaseID() string {
	for table := t; table != nil; table = table.parent {
		if table.baseID != "" {
			return table.baseID
		}
	}

	return t.registry.config.BaseID
}

// TableName returns the resolved remote table name.
func (t *Table) TableName() string {
	for table := t; table != nil; table = table.parent {
		if table.tableName != "" {
			return table.tableName
		}
	}

	return ""
}

// APIKey returns the resolved credential.
func (t *Table) APIKey() string {
	for table := t; table != nil; table = table.parent {
		if table.apiKey != "" {
			return table.apiKey
		}
	}

	return t.registry.config.APIKey
}

// New builds an unsaved record.
func (t *Table) New(fields airrecord.Fields) *Record {
	return newRecord(t, "", "", fields)
}

func (t *Table) client() (*arhttp.Client, error) {
	apiKey := t.APIKey()
	if apiKey == "" {
		return nil, airrecord.ErrMissingAPIKey
	}

	return t.registry.Client(apiKey), nil
}

// path returns /v0/{base}/{table}[/segment...].
func (t *Table) path(segments ...string) (string, error) {
	baseID := t.BaseID()
	if baseID == "" {
		return "", airrecord.ErrMissingBaseID
	}

	tableName := t.TableName()
	if tableName == "" {
		return "", airrecord.ErrMissingTableName
	}

	parts := []string{"", constants.APIVersion, baseID, url.PathEscape(tableName)}
	for _, segment := range segments {
		parts = append(parts, url.PathEscape(segment))
	}

	return strings.Join(parts, "/"), nil
}

// do resolves client and path, then sends method with body.
func (t *Table) do(ctx context.Context, method string, body interface{}, segments ...string) (*arhttp.Response, error) {
	client, err := t.client()
	if err != nil {
		return nil, err
	}

	path, err := t.path(segments...)
	if err != nil {
		return nil, err
	}

	return client.Do(ctx, &arhttp.Request{
		Method: method,
		Path:   path,
		Body:   body,
	})
}

// Find fetches one record by id.
func (t *Table) Find(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, airrecord.ErrMissingRecordID
	}

	resp, err := t.do(ctx, http.MethodGet, nil, id)
	if err != nil {
		return nil, fmt.Errorf("finding record %s: %w", id, err)
	}

	var payload airrecord.RecordPayload

	err = resp.Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("finding record %s: %w", id, err)
	}

	if payload.ID == "" {
		payload.ID = id
	}

	return t.build(payload)
}

// Create builds a record from fields and saves it.
func (t *Table) Create(ctx context.Context, fields airrecord.Fields, opts ...airrecord.WriteOption) (*Record, error) {
	record := t.New(fields)

	err := record.Save(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Update PATCHes fields onto record id and returns the fields the store
// reports back. Fields not named are left untouched.
func (t *Table) Update(ctx context.Context, id string, fields airrecord.Fields, opts ...airrecord.WriteOption) (airrecord.Fields, error) {
	if id == "" {
		return nil, airrecord.ErrMissingRecordID
	}

	if fields == nil {
		fields = airrecord.Fields{}
	}

	body := airrecord.BuildWriteBody(map[string]interface{}{"fields": fields}, opts...)

	resp, err := t.do(ctx, http.MethodPatch, body, id)
	if err != nil {
		return nil, fmt.Errorf("updating record %s: %w", id, err)
	}

	var payload airrecord.RecordPayload

	err = resp.Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("updating record %s: %w", id, err)
	}

	if payload.Fields == nil {
		payload.Fields = airrecord.Fields{}
	}

	return payload.Fields, nil
}

// Delete removes record id.
func (t *Table) Delete(ctx context.Context, id string) error {
	if id == "" {
		return airrecord.ErrMissingRecordID
	}

	_, err := t.do(ctx, http.MethodDelete, nil, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	return nil
}

// insert POSTs a single record and returns the stored payload.
func (t *Table) insert(ctx context.Context, fields airrecord.Fields, opts ...airrecord.WriteOption) (airrecord.RecordPayload, error) {
	if fields == nil {
		fields = airrecord.Fields{}
	}

	body := airrecord.BuildWriteBody(map[string]interface{}{"fields": fields}, opts...)

	var payload airrecord.RecordPayload

	resp, err := t.do(ctx, http.MethodPost, body)
	if err != nil {
		return payload, fmt.Errorf("creating record: %w", err)
	}

	err = resp.Decode(&payload)
	if err != nil {
		return payload, fmt.Errorf("creating record: %w", err)
	}

	return payload, nil
}

// comment adds a comment to record id and returns the comment id.
func (t *Table) comment(ctx context.Context, id, text string) (string, error) {
	resp, err := t.do(ctx, http.MethodPost, airrecord.CommentRequest{Text: text}, id, constants.CommentsPath)
	if err != nil {
		return "", fmt.Errorf("commenting on record %s: %w", id, err)
	}

	var comment airrecord.CommentResponse

	err = resp.Decode(&comment)
	if err != nil {
		return "", fmt.Errorf("commenting on record %s: %w", id, err)
	}

	return comment.ID, nil
}

// webURL returns the browser URL of record id.
func (t *Table) webURL(id string) string {
	return fmt.Sprintf("%s/%s/%s/%s", constants.WebURL, t.BaseID(), url.PathEscape(t.TableName()), id)
}
