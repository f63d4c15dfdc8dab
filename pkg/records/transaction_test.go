package records_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_TransactionFailureDiscardsWrites(t *testing.T) {
	t.Parallel()

	table := noServer(t)
	record := persisted(t, table, "rec1", airrecord.Fields{"Name": "Assam"})
	failure := errors.New("changed my mind")

	err := record.Transaction(context.Background(), func(r *records.Record) error {
		r.Set("Name", "Sencha")
		r.Set("Count", 3)

		return failure
	})
	require.ErrorIs(t, err, failure)

	assert.Equal(t, airrecord.Fields{"Name": "Assam"}, record.Fields())
	assert.False(t, record.IsDirty())

	record.Set("Name", "Gyokuro")
	assert.Equal(t, "Gyokuro", record.Get("Name"), "writes apply directly after the transaction")
}

func TestRecord_TransactionPanicTearsDown(t *testing.T) {
	t.Parallel()

	record := persisted(t, noServer(t), "rec1", airrecord.Fields{"Name": "Assam"})

	assert.Panics(t, func() {
		_ = record.Transaction(context.Background(), func(r *records.Record) error {
			r.Set("Name", "Sencha")
			panic("boom")
		})
	})

	assert.Equal(t, "Assam", record.Get("Name"))

	record.Set("Name", "Sencha")
	assert.Equal(t, "Sencha", record.Get("Name"))
	assert.Equal(t, []string{"Name"}, record.DirtyKeys())
}

func TestRecord_TransactionPatchesStagedValues(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(row("rec1", map[string]interface{}{"Name": "Sencha", "Count": 3, "Origin": "Japan"}))
	})

	table := store.table("Tea")
	record := persisted(t, table, "rec1", airrecord.Fields{"Name": "Assam", "Count": float64(3)})

	err := record.Transaction(context.Background(), func(r *records.Record) error {
		r.Set("Name", "Sencha")
		r.Set("Count", float64(3))

		return nil
	})
	require.NoError(t, err)

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "/v0/appTest/Tea/rec1", calls[0].Path)
	assert.Equal(t, map[string]interface{}{"Name": "Sencha"}, calls[0].Body["fields"])

	assert.Equal(t, "Sencha", record.Get("Name"))
	assert.Equal(t, "Japan", record.Get("Origin"))
	assert.False(t, record.IsDirty())
}

func TestRecord_TransactionKeepsUnstagedDirtyKeys(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(row("rec1", map[string]interface{}{"Name": "Sencha", "Notes": "server"}))
	})

	record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{"Name": "Assam", "Notes": "old"})
	record.Set("Notes", "local")

	err := record.Transaction(context.Background(), func(r *records.Record) error {
		r.Set("Name", "Sencha")

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Notes"}, record.DirtyKeys())
	assert.Equal(t, "local", record.Get("Notes"))
	assert.Equal(t, map[string]interface{}{"Name": "Sencha"}, store.calls()[0].Body["fields"])
}

func TestRecord_TransactionCreatesNewRecord(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		fields, _ := req.Body["fields"].(map[string]interface{})

		return okJSON(row("recNew", fields))
	})

	record := store.table("Tea").New(airrecord.Fields{"Name": "Assam"})

	err := record.Transaction(context.Background(), func(r *records.Record) error {
		r.Set("Count", 2)

		return nil
	})
	require.NoError(t, err)

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, map[string]interface{}{"Name": "Assam", "Count": float64(2)}, calls[0].Body["fields"])
	assert.Equal(t, "recNew", record.ID())
}

func TestRecord_TransactionCommitError(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return notFound()
	})

	record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{"Name": "Assam"})

	err := record.Transaction(context.Background(), func(r *records.Record) error {
		r.Set("Name", "Sencha")

		return nil
	})
	require.Error(t, err)
	assert.True(t, airrecord.IsNotFound(err))
	assert.Contains(t, err.Error(), "committing transaction")
	assert.Equal(t, "Assam", record.Get("Name"))
}

func TestRecord_TransactionNested(t *testing.T) {
	t.Parallel()

	record := persisted(t, noServer(t), "rec1", airrecord.Fields{"Name": "Assam"})

	var nested error

	err := record.Transaction(context.Background(), func(r *records.Record) error {
		nested = r.Transaction(context.Background(), func(*records.Record) error { return nil })

		return nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, nested, airrecord.ErrTransactionActive)
	assert.True(t, airrecord.IsUsageError(nested))
}
