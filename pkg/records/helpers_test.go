package records_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/records"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// recordedRequest is one call seen by the fake store.
type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// fakeStore is an httptest server that records every request and answers
// with handler.
type fakeStore struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

type storeHandler func(call int, req recordedRequest) (int, interface{})

func newFakeStore(t *testing.T, handler storeHandler) *fakeStore {
	t.Helper()

	store := &fakeStore{t: t}
	store.server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		raw, _ := io.ReadAll(request.Body)

		recorded := recordedRequest{
			Method: request.Method,
			Path:   request.URL.EscapedPath(),
		}

		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &recorded.Body)
		}

		store.mu.Lock()
		store.requests = append(store.requests, recorded)
		call := len(store.requests) - 1
		store.mu.Unlock()

		status, body := handler(call, recorded)

		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)

		switch typed := body.(type) {
		case nil:
		case string:
			_, _ = writer.Write([]byte(typed))
		default:
			_ = json.NewEncoder(writer).Encode(typed)
		}
	}))

	t.Cleanup(store.server.Close)

	return store
}

func (s *fakeStore) calls() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]recordedRequest, len(s.requests))
	copy(out, s.requests)

	return out
}

func (s *fakeStore) registry() *records.Registry {
	s.t.Helper()

	reg, err := records.NewRegistry(&airrecord.Config{
		APIKey:          "key123",
		BaseID:          "appTest",
		BaseURL:         s.server.URL,
		DisableThrottle: true,
	})
	require.NoError(s.t, err)

	return reg
}

func (s *fakeStore) table(name string) *records.Table {
	return s.registry().Table("", name)
}

// row builds a store payload.
func row(id string, fields map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"createdTime": "2024-03-01T10:00:00.000Z",
		"fields":      fields,
	}
}

// echoRows answers a batch write with one row per sent record, numbering ids
// from the call index when the record carried none.
func echoRows(call int, req recordedRequest) []interface{} {
	sent, _ := req.Body["records"].([]interface{})
	rows := make([]interface{}, 0, len(sent))

	for index, entry := range sent {
		entryMap, _ := entry.(map[string]interface{})

		id, _ := entryMap["id"].(string)
		if id == "" {
			id = "rec" + string(rune('A'+call)) + string(rune('a'+index))
		}

		fields, _ := entryMap["fields"].(map[string]interface{})
		rows = append(rows, row(id, fields))
	}

	return rows
}

// persisted builds a record as if loaded from the store.
func persisted(t *testing.T, table *records.Table, id string, fields airrecord.Fields) *records.Record {
	t.Helper()

	record, err := table.Build(airrecord.RecordPayload{
		ID:          id,
		CreatedTime: "2024-03-01T10:00:00.000Z",
		Fields:      fields,
	})
	require.NoError(t, err)

	return record
}

func notFound() (int, interface{}) {
	return http.StatusNotFound, `{"error":"NOT_FOUND"}`
}

func okJSON(body interface{}) (int, interface{}) {
	return http.StatusOK, body
}
