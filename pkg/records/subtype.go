package records

import (
	"fmt"
	"maps"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
)

type subtypeConfig struct {
	column  string
	mapping map[string]*Table
	strict  bool
}

// HasSubtypes makes records built by t dispatch on the string value of
// column: a value found in mapping builds the record with that variant
// descriptor. Unmapped values fall back to t, or fail with
// airrecord.ErrUnknownSubtype when strict is set. It returns t.
func (t *Table) HasSubtypes(column string, mapping map[string]*Table, strict bool) *Table {
	t.subtypes = &subtypeConfig{
		column:  column,
		mapping: maps.Clone(mapping),
		strict:  strict,
	}

	return t
}

// Build turns a server payload into a record, applying subtype dispatch.
func (t *Table) Build(payload airrecord.RecordPayload) (*Record, error) {
	return t.build(payload)
}

func (t *Table) build(payload airrecord.RecordPayload) (*Record, error) {
	current := t
	visited := map[*Table]bool{}

	for current.subtypes != nil {
		visited[current] = true
		config := current.subtypes
		raw := payload.Fields[config.column]

		var variant *Table
		if value, ok := raw.(string); ok {
			variant = config.mapping[value]
		}

		if variant == nil {
			if config.strict {
				return nil, fmt.Errorf("%w: %s=%v in table %s", airrecord.ErrUnknownSubtype, config.column, raw, current.Name())
			}

			break
		}

		if variant == current {
			break
		}

		if visited[variant] {
			return nil, fmt.Errorf("%w: %s=%v in table %s", airrecord.ErrSubtypeCycle, config.column, raw, current.Name())
		}

		current = variant
	}

	return newRecord(current, payload.ID, payload.CreatedTime, payload.Fields), nil
}

func (t *Table) buildAll(payloads []airrecord.RecordPayload) ([]*Record, error) {
	built := make([]*Record, 0, len(payloads))

	for _, payload := range payloads {
		record, err := t.build(payload)
		if err != nil {
			return built, err
		}

		built = append(built, record)
	}

	return built, nil
}
