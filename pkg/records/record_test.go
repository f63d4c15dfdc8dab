package records_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noServer(t *testing.T) *records.Table {
	t.Helper()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)

		return http.StatusInternalServerError, nil
	})

	return store.table("Tea")
}

func TestRecord_SetNoOp(t *testing.T) {
	t.Parallel()

	table := noServer(t)

	tests := []struct {
		name  string
		value interface{}
	}{
		{name: "string", value: "Assam"},
		{name: "number", value: float64(42)},
		{name: "bool", value: true},
		{name: "list", value: []interface{}{"recA", "recB"}},
		{name: "object", value: map[string]interface{}{"url": "https://example.com/a.png"}},
		{name: "nil", value: nil},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			record := persisted(t, table, "rec1", airrecord.Fields{"Value": testCase.value})
			record.Set("Value", testCase.value)

			assert.Empty(t, record.DirtyKeys())
			assert.False(t, record.IsDirty())
		})
	}

	t.Run("missing key set to nil", func(t *testing.T) {
		t.Parallel()

		record := persisted(t, table, "rec1", airrecord.Fields{})
		record.Set("Absent", nil)
		assert.Empty(t, record.DirtyKeys())
	})
}

func TestRecord_SetTracksOnce(t *testing.T) {
	t.Parallel()

	record := persisted(t, noServer(t), "rec1", airrecord.Fields{"Name": "Assam", "Status": "Active"})

	record.Set("Name", "Darjeeling")
	record.Set("Status", "Retired")
	record.Set("Name", "Darjeeling")
	record.Set("Name", "Ceylon")

	assert.Equal(t, []string{"Name", "Status"}, record.DirtyKeys())
	assert.Equal(t, "Ceylon", record.Get("Name"))
	assert.Equal(t, airrecord.Fields{"Name": "Ceylon", "Status": "Retired"}, record.UpdateFields())
}

func TestRecord_Accessors(t *testing.T) {
	t.Parallel()

	table := noServer(t)

	t.Run("loaded", func(t *testing.T) {
		t.Parallel()

		record := persisted(t, table, "rec1", airrecord.Fields{"Name": "Assam"})
		assert.Equal(t, "rec1", record.ID())
		assert.False(t, record.IsNew())
		assert.Same(t, table, record.Table())
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), record.CreatedAt().UTC())
		assert.Equal(t, "https://airtable.com/appTest/Tea/rec1", record.URL())
		assert.Equal(t, "Tea(rec1)", record.String())
	})

	t.Run("new", func(t *testing.T) {
		t.Parallel()

		record := table.New(airrecord.Fields{"Name": "Assam"})
		assert.True(t, record.IsNew())
		assert.Empty(t, record.ID())
		assert.True(t, record.CreatedAt().IsZero())
		assert.Empty(t, record.DirtyKeys())
		assert.Equal(t, "Tea(new)", record.String())
	})

	t.Run("invalid created time", func(t *testing.T) {
		t.Parallel()

		record, err := table.Build(airrecord.RecordPayload{ID: "rec1", CreatedTime: "yesterday"})
		require.NoError(t, err)
		assert.True(t, record.CreatedAt().IsZero())
		assert.NotNil(t, record.Fields())
	})

	t.Run("fields are copies", func(t *testing.T) {
		t.Parallel()

		record := persisted(t, table, "rec1", airrecord.Fields{"Name": "Assam"})
		fields := record.Fields()
		fields["Name"] = "changed"
		assert.Equal(t, "Assam", record.Get("Name"))
		assert.Empty(t, record.DirtyKeys())
	})
}

func TestRecord_Equal(t *testing.T) {
	t.Parallel()

	table := noServer(t)
	other := table.Variant("Other")

	first := persisted(t, table, "rec1", airrecord.Fields{"Name": "Assam"})
	second := persisted(t, table, "rec2", airrecord.Fields{"Name": "Assam"})
	different := persisted(t, table, "rec3", airrecord.Fields{"Name": "Ceylon"})
	otherTable := persisted(t, other, "rec1", airrecord.Fields{"Name": "Assam"})

	assert.True(t, first.Equal(second))
	assert.False(t, first.Equal(different))
	assert.False(t, first.Equal(otherTable))
	assert.False(t, first.Equal(nil))
}

func TestRecord_SaveClean(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return http.StatusInternalServerError, nil
	})

	record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{"Name": "Assam"})
	record.Set("Name", "Assam")

	require.NoError(t, record.Save(context.Background()))
	assert.Empty(t, store.calls())
}

func TestRecord_SaveNew(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(row("recNew", map[string]interface{}{"Name": "Assam", "Created": "computed"}))
	})

	record := store.table("Tea").New(airrecord.Fields{"Name": "Assam"})
	record.Set("Origin", "India")

	require.NoError(t, record.Save(context.Background(), airrecord.WithTypecast()))

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/v0/appTest/Tea", calls[0].Path)
	assert.Equal(t, map[string]interface{}{"Name": "Assam", "Origin": "India"}, calls[0].Body["fields"])
	assert.Equal(t, true, calls[0].Body["typecast"])

	assert.Equal(t, "recNew", record.ID())
	assert.False(t, record.IsNew())
	assert.False(t, record.CreatedAt().IsZero())
	assert.Equal(t, "computed", record.Get("Created"))
	assert.Empty(t, record.DirtyKeys())
}

func TestRecord_SaveDirty(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(row("rec1", map[string]interface{}{
			"Name":    "normalised by server",
			"Status":  "Active",
			"Updated": "2024-03-02",
		}))
	})

	record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{"Name": "Assam", "Status": "Active"})
	record.Set("Name", "Darjeeling")

	require.NoError(t, record.Save(context.Background()))

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "/v0/appTest/Tea/rec1", calls[0].Path)
	assert.Equal(t, map[string]interface{}{"Name": "Darjeeling"}, calls[0].Body["fields"])

	assert.Equal(t, "Darjeeling", record.Get("Name"), "locally written key keeps its value")
	assert.Equal(t, "2024-03-02", record.Get("Updated"))
	assert.Empty(t, record.DirtyKeys())
}

func TestRecord_CreatePersisted(t *testing.T) {
	t.Parallel()

	record := persisted(t, noServer(t), "rec1", airrecord.Fields{})

	err := record.Create(context.Background())
	require.ErrorIs(t, err, airrecord.ErrRecordExists)
	assert.True(t, airrecord.IsUsageError(err))
}

func TestRecord_Patch(t *testing.T) {
	t.Parallel()

	t.Run("unchanged values issue no request", func(t *testing.T) {
		t.Parallel()

		record := persisted(t, noServer(t), "rec1", airrecord.Fields{"Name": "Assam"})

		fields, err := record.Patch(context.Background(), airrecord.Fields{"Name": "Assam"})
		require.NoError(t, err)
		assert.Equal(t, airrecord.Fields{"Name": "Assam"}, fields)
	})

	t.Run("sends only changes and keeps dirty keys", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
			return okJSON(row("rec1", map[string]interface{}{
				"Name":   "server name",
				"Status": "Retired",
				"Count":  float64(3),
			}))
		})

		record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{"Name": "Assam", "Status": "Active", "Count": float64(3)})
		record.Set("Name", "local name")

		fields, err := record.Patch(context.Background(), airrecord.Fields{"Status": "Retired", "Count": float64(3)})
		require.NoError(t, err)

		calls := store.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, map[string]interface{}{"Status": "Retired"}, calls[0].Body["fields"])

		assert.Equal(t, "local name", fields["Name"])
		assert.Equal(t, "Retired", fields["Status"])
		assert.Equal(t, []string{"Name"}, record.DirtyKeys())
	})

	t.Run("new record", func(t *testing.T) {
		t.Parallel()

		record := noServer(t).New(airrecord.Fields{})

		_, err := record.Patch(context.Background(), airrecord.Fields{"Name": "Assam"})
		require.ErrorIs(t, err, airrecord.ErrNewRecord)
	})
}

func TestRecord_Destroy(t *testing.T) {
	t.Parallel()

	t.Run("new record", func(t *testing.T) {
		t.Parallel()

		err := noServer(t).New(airrecord.Fields{}).Destroy(context.Background())
		require.ErrorIs(t, err, airrecord.ErrDestroyNewRecord)
		assert.True(t, airrecord.IsUsageError(err))
	})

	t.Run("persisted record", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
			return okJSON(map[string]interface{}{"id": "rec1", "deleted": true})
		})

		record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{})
		require.NoError(t, record.Destroy(context.Background()))

		calls := store.calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodDelete, calls[0].Method)
		assert.Equal(t, "/v0/appTest/Tea/rec1", calls[0].Path)
	})
}

func TestRecord_Comment(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(map[string]interface{}{"id": "comABC", "text": req.Body["text"]})
	})

	record := persisted(t, store.table("Tea"), "rec1", airrecord.Fields{})

	id, err := record.Comment(context.Background(), "brewed too long")
	require.NoError(t, err)
	assert.Equal(t, "comABC", id)

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/v0/appTest/Tea/rec1/comments", calls[0].Path)
	assert.Equal(t, "brewed too long", calls[0].Body["text"])

	_, err = store.table("Tea").New(airrecord.Fields{}).Comment(context.Background(), "nope")
	require.ErrorIs(t, err, airrecord.ErrNewRecord)
}

func TestRecord_ErrorClassification(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		if req.Path == "/v0/appTest/Tea/recMissing" {
			return notFound()
		}

		return http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"bad value"}}`
	})

	table := store.table("Tea")
	ctx := context.Background()

	t.Run("get 404", func(t *testing.T) {
		t.Parallel()

		_, err := table.Find(ctx, "recMissing")
		require.Error(t, err)
		assert.True(t, airrecord.IsNotFound(err))
		assert.False(t, airrecord.IsAPIError(err))
	})

	t.Run("patch 404", func(t *testing.T) {
		t.Parallel()

		record := persisted(t, table, "recMissing", airrecord.Fields{})
		record.Set("Name", "x")
		assert.True(t, airrecord.IsNotFound(record.Save(ctx)))
		assert.Equal(t, []string{"Name"}, record.DirtyKeys(), "failed save keeps dirty keys")
	})

	t.Run("delete 404", func(t *testing.T) {
		t.Parallel()

		assert.True(t, airrecord.IsNotFound(table.Delete(ctx, "recMissing")))
	})

	t.Run("other status", func(t *testing.T) {
		t.Parallel()

		_, err := table.Find(ctx, "rec1")

		var apiErr *airrecord.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Equal(t, "bad value", apiErr.Message)
		assert.False(t, airrecord.IsNotFound(err))
	})
}

func TestTable_FindAndUpdate(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		switch req.Method {
		case http.MethodGet:
			return okJSON(row("rec1", map[string]interface{}{"Name": "Assam"}))
		default:
			return okJSON(row("rec1", map[string]interface{}{"Name": "Ceylon", "Status": "Active"}))
		}
	})

	table := store.table("Tea Leaves")
	ctx := context.Background()

	record, err := table.Find(ctx, "rec1")
	require.NoError(t, err)
	assert.Equal(t, "rec1", record.ID())
	assert.Equal(t, "Assam", record.Get("Name"))
	assert.Empty(t, record.DirtyKeys())

	fields, err := table.Update(ctx, "rec1", airrecord.Fields{"Name": "Ceylon"}, airrecord.WithReturnFieldsByFieldID())
	require.NoError(t, err)
	assert.Equal(t, airrecord.Fields{"Name": "Ceylon", "Status": "Active"}, fields)

	calls := store.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/v0/appTest/Tea%20Leaves/rec1", calls[0].Path)
	assert.Equal(t, http.MethodPatch, calls[1].Method)
	assert.Equal(t, true, calls[1].Body["returnFieldsByFieldId"])

	_, err = table.Find(ctx, "")
	require.ErrorIs(t, err, airrecord.ErrMissingRecordID)
}

func TestTable_FindKeepsServerID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response interface{}
		expected string
	}{
		{
			name:     "server id wins",
			response: row("recCanonical", map[string]interface{}{"Name": "Assam"}),
			expected: "recCanonical",
		},
		{
			name:     "argument when the body has no id",
			response: map[string]interface{}{"fields": map[string]interface{}{"Name": "Assam"}},
			expected: "recAlias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
				return okJSON(tt.response)
			})

			record, err := store.table("Tea").Find(context.Background(), "recAlias")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, record.ID())
			assert.Equal(t, "Assam", record.Get("Name"))
		})
	}
}

func TestTable_Create(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(row("recNew", req.Body["fields"].(map[string]interface{})))
	})

	record, err := store.table("Tea").Create(context.Background(), airrecord.Fields{"Name": "Assam"})
	require.NoError(t, err)
	assert.Equal(t, "recNew", record.ID())
	assert.Equal(t, "Assam", record.Get("Name"))
}
