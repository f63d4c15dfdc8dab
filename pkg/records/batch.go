package records

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
)

// Batch operations send one request per chunk of constants.BatchSize
// records, in input order. A failing chunk stops the call; chunks already
// sent stay applied and their results are returned with the error.

// UpsertOptions tunes BatchUpsert.
type UpsertOptions struct {
	// IncludeIDs sends the id of persisted records so they match by id.
	IncludeIDs bool
	// Hydrate builds Records, Created and Updated from the returned rows.
	Hydrate bool
}

// UpsertResult accumulates every chunk of a BatchUpsert.
type UpsertResult struct {
	CreatedIDs []string
	UpdatedIDs []string
	Rows       []airrecord.RecordPayload

	// Set only with UpsertOptions.Hydrate.
	Records []*Record
	Created []*Record
	Updated []*Record
}

// BatchCreate creates recs and returns the stored records. Ids are never
// sent.
func (t *Table) BatchCreate(ctx context.Context, recs []*Record, opts ...airrecord.WriteOption) ([]*Record, error) {
	var rows []airrecord.RecordPayload

	for chunk := range slices.Chunk(recs, constants.BatchSize) {
		entries := make([]airrecord.RecordPayload, 0, len(chunk))
		for _, record := range chunk {
			entries = append(entries, airrecord.RecordPayload{Fields: nonNil(record.SerializableFields())})
		}

		body := airrecord.BuildWriteBody(map[string]interface{}{"records": entries}, opts...)

		returned, err := t.sendBatch(ctx, http.MethodPost, body)
		if err != nil {
			return t.partial(rows, fmt.Errorf("batch creating records: %w", err))
		}

		rows = append(rows, returned...)
	}

	return t.buildAll(rows)
}

// BatchUpdate PATCHes the dirty fields of recs and returns the updated
// records. Every record must be persisted.
func (t *Table) BatchUpdate(ctx context.Context, recs []*Record, opts ...airrecord.WriteOption) ([]*Record, error) {
	for _, record := range recs {
		if record.IsNew() {
			return nil, airrecord.ErrNewRecord
		}
	}

	var rows []airrecord.RecordPayload

	for chunk := range slices.Chunk(recs, constants.BatchSize) {
		entries := make([]airrecord.RecordPayload, 0, len(chunk))
		for _, record := range chunk {
			entries = append(entries, airrecord.RecordPayload{ID: record.ID(), Fields: record.UpdateFields()})
		}

		body := airrecord.BuildWriteBody(map[string]interface{}{"records": entries}, opts...)

		returned, err := t.sendBatch(ctx, http.MethodPatch, body)
		if err != nil {
			return t.partial(rows, fmt.Errorf("batch updating records: %w", err))
		}

		rows = append(rows, returned...)
	}

	return t.buildAll(rows)
}

// BatchUpsert creates or updates recs, matching existing rows on
// mergeFields.
func (t *Table) BatchUpsert(
	ctx context.Context,
	recs []*Record,
	mergeFields []string,
	upsertOpts UpsertOptions,
	opts ...airrecord.WriteOption,
) (*UpsertResult, error) {
	if len(mergeFields) == 0 {
		return nil, airrecord.ErrMissingMergeFields
	}

	result := &UpsertResult{}

	for chunk := range slices.Chunk(recs, constants.BatchSize) {
		entries := make([]airrecord.RecordPayload, 0, len(chunk))
		for _, record := range chunk {
			entry := airrecord.RecordPayload{Fields: nonNil(record.SerializableFields())}
			if upsertOpts.IncludeIDs {
				entry.ID = record.ID()
			}

			entries = append(entries, entry)
		}

		body := airrecord.BuildWriteBody(map[string]interface{}{"records": entries}, opts...)
		body["performUpsert"] = airrecord.PerformUpsert{FieldsToMergeOn: mergeFields}

		upserted, err := t.sendUpsert(ctx, body)
		if err != nil {
			return result, fmt.Errorf("batch upserting records: %w", err)
		}

		result.CreatedIDs = append(result.CreatedIDs, upserted.CreatedRecords...)
		result.UpdatedIDs = append(result.UpdatedIDs, upserted.UpdatedRecords...)
		result.Rows = append(result.Rows, upserted.Records...)
	}

	if upsertOpts.Hydrate && len(result.Rows) > 0 {
		err := t.hydrate(result)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// hydrate builds one record per returned id, keeping first-seen order and
// the last row for a repeated id.
func (t *Table) hydrate(result *UpsertResult) error {
	byID := make(map[string]*Record, len(result.Rows))
	order := make([]string, 0, len(result.Rows))

	for _, row := range result.Rows {
		record, err := t.build(row)
		if err != nil {
			return err
		}

		if _, seen := byID[row.ID]; !seen {
			order = append(order, row.ID)
		}

		byID[row.ID] = record
	}

	result.Records = make([]*Record, 0, len(order))
	for _, id := range order {
		result.Records = append(result.Records, byID[id])
	}

	result.Created = pick(byID, result.CreatedIDs)
	result.Updated = pick(byID, result.UpdatedIDs)

	return nil
}

func pick(byID map[string]*Record, ids []string) []*Record {
	picked := make([]*Record, 0, len(ids))

	for _, id := range ids {
		if record, ok := byID[id]; ok {
			picked = append(picked, record)
		}
	}

	return picked
}

// BatchSave creates the new records and updates the persisted ones.
// Created records come first in the result.
func (t *Table) BatchSave(ctx context.Context, recs []*Record, opts ...airrecord.WriteOption) ([]*Record, error) {
	var toCreate, toUpdate []*Record

	for _, record := range recs {
		if record.IsNew() {
			toCreate = append(toCreate, record)
		} else {
			toUpdate = append(toUpdate, record)
		}
	}

	created, err := t.BatchCreate(ctx, toCreate, opts...)
	if err != nil {
		return created, err
	}

	updated, err := t.BatchUpdate(ctx, toUpdate, opts...)

	return append(created, updated...), err
}

// Upsert upserts a single record built from fields and returns the stored
// record, or nil when the store returned no row.
func (t *Table) Upsert(ctx context.Context, fields airrecord.Fields, mergeFields []string, opts ...airrecord.WriteOption) (*Record, error) {
	result, err := t.BatchUpsert(ctx, []*Record{t.New(fields)}, mergeFields, UpsertOptions{}, opts...)
	if err != nil {
		return nil, err
	}

	if len(result.Rows) == 0 {
		return nil, nil
	}

	return t.build(result.Rows[0])
}

func (t *Table) sendBatch(ctx context.Context, method string, body map[string]interface{}) ([]airrecord.RecordPayload, error) {
	resp, err := t.do(ctx, method, body)
	if err != nil {
		return nil, err
	}

	var batch airrecord.BatchResponse

	err = resp.Decode(&batch)
	if err != nil {
		return nil, err
	}

	return batch.Records, nil
}

func (t *Table) sendUpsert(ctx context.Context, body map[string]interface{}) (airrecord.UpsertResponse, error) {
	var upserted airrecord.UpsertResponse

	resp, err := t.do(ctx, http.MethodPatch, body)
	if err != nil {
		return upserted, err
	}

	err = resp.Decode(&upserted)

	return upserted, err
}

// partial builds the rows completed before cause and returns them with it.
func (t *Table) partial(rows []airrecord.RecordPayload, cause error) ([]*Record, error) {
	built, err := t.buildAll(rows)
	if err != nil {
		return built, errors.Join(cause, err)
	}

	return built, cause
}

func nonNil(fields airrecord.Fields) airrecord.Fields {
	if fields == nil {
		return airrecord.Fields{}
	}

	return fields
}
