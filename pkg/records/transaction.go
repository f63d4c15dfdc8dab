package records

import (
	"context"
	"fmt"
	"maps"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
)

// Transaction runs fn with field writes staged instead of applied. When fn
// returns nil the staged values are saved (new record) or patched (persisted
// record). When fn fails or panics nothing is applied. Either way Set writes
// go to the live fields again afterwards.
func (r *Record) Transaction(ctx context.Context, fn func(*Record) error) error {
	if r.staging != nil {
		return airrecord.ErrTransactionActive
	}

	r.staging = airrecord.Fields{}

	var staged airrecord.Fields

	err := func() error {
		defer func() { staged, r.staging = r.staging, nil }()

		return fn(r)
	}()
	if err != nil {
		return err
	}

	r.dirty = withoutKeys(r.dirty, staged)

	if r.IsNew() {
		maps.Copy(r.fields, staged)

		err = r.Save(ctx)
		if err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}

		return nil
	}

	_, err = r.Patch(ctx, staged)
	if err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func withoutKeys(keys []string, remove airrecord.Fields) []string {
	kept := keys[:0]

	for _, key := range keys {
		if _, ok := remove[key]; !ok {
			kept = append(kept, key)
		}
	}

	if len(kept) == 0 {
		return nil
	}

	return kept
}
