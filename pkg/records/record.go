package records

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
)

// Record is one remote row. Field writes through Set are tracked so Save
// sends only what changed. A Record is not safe for concurrent use.
type Record struct {
	table     *Table
	id        string
	createdAt time.Time
	fields    airrecord.Fields
	dirty     []string

	// staging is non-nil while a Transaction runs; Set writes land here.
	staging airrecord.Fields
}

func newRecord(table *Table, id, createdTime string, fields airrecord.Fields) *Record {
	record := &Record{
		table:     table,
		id:        id,
		createdAt: parseCreatedTime(createdTime),
	}
	record.replaceFields(fields.Clone())

	return record
}

// parseCreatedTime returns the zero time for empty or unparseable values.
func parseCreatedTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func (r *Record) replaceFields(fields airrecord.Fields) {
	if fields == nil {
		fields = airrecord.Fields{}
	}

	r.fields = fields
	r.dirty = nil
}

// ID returns the record id, empty for a new record.
func (r *Record) ID() string {
	return r.id
}

// CreatedAt returns the creation time reported by the store.
func (r *Record) CreatedAt() time.Time {
	return r.createdAt
}

// IsNew reports whether the record has never been persisted.
func (r *Record) IsNew() bool {
	return r.id == ""
}

// Table returns the descriptor the record was built by.
func (r *Record) Table() *Table {
	return r.table
}

// Get returns the current value of key, or nil.
func (r *Record) Get(key string) interface{} {
	return r.fields[key]
}

// Set assigns key. Assigning the current value is a no-op; any other value
// marks key dirty once. Inside Transaction the write is staged instead.
func (r *Record) Set(key string, value interface{}) {
	if r.staging != nil {
		r.staging[key] = value

		return
	}

	if reflect.DeepEqual(r.fields[key], value) {
		return
	}

	if !slices.Contains(r.dirty, key) {
		r.dirty = append(r.dirty, key)
	}

	r.fields[key] = value
}

// Fields returns a copy of the current fields.
func (r *Record) Fields() airrecord.Fields {
	return r.fields.Clone()
}

// DirtyKeys returns the keys changed since the last load or save, in the
// order they were first changed.
func (r *Record) DirtyKeys() []string {
	return slices.Clone(r.dirty)
}

// IsDirty reports whether any field changed since the last load or save.
func (r *Record) IsDirty() bool {
	return len(r.dirty) > 0
}

// UpdateFields returns the dirty subset of the fields.
func (r *Record) UpdateFields() airrecord.Fields {
	update := make(airrecord.Fields, len(r.dirty))
	for _, key := range r.dirty {
		update[key] = r.fields[key]
	}

	return update
}

// SerializableFields returns the fields sent when the record is created.
func (r *Record) SerializableFields() airrecord.Fields {
	return r.fields.Clone()
}

// Save creates a new record, or PATCHes the dirty fields of a persisted one.
// A clean persisted record issues no request.
func (r *Record) Save(ctx context.Context, opts ...airrecord.WriteOption) error {
	if r.IsNew() {
		return r.Create(ctx, opts...)
	}

	if len(r.dirty) == 0 {
		return nil
	}

	returned, err := r.table.Update(ctx, r.id, r.UpdateFields(), opts...)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}

	// Keys written locally win over what the round trip returned.
	for _, key := range r.dirty {
		returned[key] = r.fields[key]
	}

	r.replaceFields(returned)

	return nil
}

// Create POSTs the record and adopts the id, creation time and fields the
// store returns.
func (r *Record) Create(ctx context.Context, opts ...airrecord.WriteOption) error {
	if !r.IsNew() {
		return airrecord.ErrRecordExists
	}

	payload, err := r.table.insert(ctx, r.SerializableFields(), opts...)
	if err != nil {
		return err
	}

	r.id = payload.ID
	r.createdAt = parseCreatedTime(payload.CreatedTime)
	r.replaceFields(payload.Fields)

	return nil
}

// Patch sends the entries of updates that differ from the current values
// and merges the response, leaving dirty keys untouched. It returns the
// resulting fields.
func (r *Record) Patch(ctx context.Context, updates airrecord.Fields, opts ...airrecord.WriteOption) (airrecord.Fields, error) {
	changed := make(airrecord.Fields, len(updates))

	for key, value := range updates {
		if !reflect.DeepEqual(r.fields[key], value) {
			changed[key] = value
		}
	}

	if len(changed) == 0 {
		return r.Fields(), nil
	}

	if r.IsNew() {
		return nil, airrecord.ErrNewRecord
	}

	returned, err := r.table.Update(ctx, r.id, changed, opts...)
	if err != nil {
		return nil, fmt.Errorf("patching record: %w", err)
	}

	for key, value := range returned {
		if !slices.Contains(r.dirty, key) {
			r.fields[key] = value
		}
	}

	return r.Fields(), nil
}

// Destroy deletes the record from the store.
func (r *Record) Destroy(ctx context.Context) error {
	if r.IsNew() {
		return airrecord.ErrDestroyNewRecord
	}

	return r.table.Delete(ctx, r.id)
}

// Comment adds a comment to the record and returns the comment id.
func (r *Record) Comment(ctx context.Context, text string) (string, error) {
	if r.IsNew() {
		return "", airrecord.ErrNewRecord
	}

	return r.table.comment(ctx, r.id, text)
}

// URL returns the browser URL of the record.
func (r *Record) URL() string {
	return r.table.webURL(r.id)
}

// Equal reports whether other was built by the same descriptor and has
// equal fields.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}

	return r.table == other.table && reflect.DeepEqual(r.SerializableFields(), other.SerializableFields())
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	id := r.id
	if id == "" {
		id = "new"
	}

	return fmt.Sprintf("%s(%s)", r.table.Name(), id)
}
