package records

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/formula"
)

// Sort orders list results by one field.
type Sort = airrecord.Sort

// ListOptions are the listRecords options. Zero values are not sent.
type ListOptions struct {
	Filter     string
	Sort       []Sort
	View       string
	Fields     []string
	MaxRecords int
	PageSize   int
	// Offset resumes from a cursor returned by an earlier page.
	Offset string
	// DisablePagination returns only the first page.
	DisablePagination bool
}

func (o *ListOptions) request() airrecord.ListRecordsRequest {
	if o == nil {
		return airrecord.ListRecordsRequest{}
	}

	return airrecord.ListRecordsRequest{
		FilterByFormula: o.Filter,
		Sort:            o.Sort,
		View:            o.View,
		Offset:          o.Offset,
		Fields:          o.Fields,
		MaxRecords:      o.MaxRecords,
		PageSize:        o.PageSize,
	}
}

func (o *ListOptions) clone() ListOptions {
	if o == nil {
		return ListOptions{}
	}

	return *o
}

// Records lists the table, following offset cursors page by page unless
// pagination is disabled. Records keep server order.
func (t *Table) Records(ctx context.Context, opts *ListOptions) ([]*Record, error) {
	request := opts.request()
	paginate := opts == nil || !opts.DisablePagination

	var payloads []airrecord.RecordPayload

	for {
		resp, err := t.do(ctx, http.MethodPost, request, constants.ListRecordsPath)
		if err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}

		var page airrecord.ListRecordsResponse

		err = resp.Decode(&page)
		if err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}

		payloads = append(payloads, page.Records...)

		if !paginate || page.Offset == "" {
			break
		}

		request.Offset = page.Offset
	}

	return t.buildAll(payloads)
}

// All is Records.
func (t *Table) All(ctx context.Context, opts *ListOptions) ([]*Record, error) {
	return t.Records(ctx, opts)
}

// Where lists the records matching filter.
func (t *Table) Where(ctx context.Context, filter string, opts *ListOptions) ([]*Record, error) {
	merged := opts.clone()
	merged.Filter = filter

	return t.Records(ctx, &merged)
}

// First returns the first record, or nil when there is none.
func (t *Table) First(ctx context.Context, opts *ListOptions) (*Record, error) {
	merged := opts.clone()
	merged.MaxRecords = constants.FirstMaxRecords

	found, err := t.Records(ctx, &merged)
	if err != nil {
		return nil, err
	}

	if len(found) == 0 {
		return nil, nil
	}

	return found[0], nil
}

// FirstWhere returns the first record matching filter, or nil.
func (t *Table) FirstWhere(ctx context.Context, filter string, opts *ListOptions) (*Record, error) {
	merged := opts.clone()
	merged.Filter = filter

	return t.First(ctx, &merged)
}

// FindMany fetches the records with the given ids, optionally narrowed by
// where, and returns them in the order of ids. Records the store returns
// that are not in ids come last in server order. No ids means no request.
func (t *Table) FindMany(ctx context.Context, ids []string, where string, sortBy []Sort) ([]*Record, error) {
	if len(ids) == 0 {
		return []*Record{}, nil
	}

	clauses := make([]string, 0, len(ids))
	for _, id := range ids {
		clauses = append(clauses, formula.RecordIDIs(id))
	}

	filter := formula.AnyOf(clauses...)
	if where != "" {
		filter = formula.AllOf(filter, where)
	}

	found, err := t.Records(ctx, &ListOptions{Filter: filter, Sort: sortBy})
	if err != nil {
		return nil, err
	}

	position := make(map[string]int, len(ids))
	for index, id := range ids {
		if _, seen := position[id]; !seen {
			position[id] = index
		}
	}

	rank := func(record *Record) int {
		if index, ok := position[record.ID()]; ok {
			return index
		}

		return len(ids)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return rank(found[i]) < rank(found[j])
	})

	return found, nil
}
