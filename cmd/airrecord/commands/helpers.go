package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/records"
	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	defaultJSONIndent = 2

	// maxCellWidth truncates long field values in table output.
	maxCellWidth = 40
)

// RecordView is the json/yaml rendering of a record.
type RecordView struct {
	ID          string           `json:"id"                    yaml:"id"`
	CreatedTime string           `json:"createdTime,omitempty" yaml:"createdTime,omitempty"`
	Fields      airrecord.Fields `json:"fields"                yaml:"fields"`
}

func newRecordView(record *records.Record) RecordView {
	view := RecordView{ID: record.ID(), Fields: record.Fields()}
	if !record.CreatedAt().IsZero() {
		view.CreatedTime = record.CreatedAt().UTC().Format(time.RFC3339)
	}

	return view
}

func validateOutputFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s (use table, json or yaml)", constants.ErrInvalidOutputFormat, format)
	}
}

// renderValue writes data as json or yaml, or calls table for table output.
func renderValue(w io.Writer, format string, data interface{}, table func(io.Writer) error) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("encoding data to JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(defaultJSONIndent)

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("encoding data to YAML: %w", err)
		}

		return nil
	case constants.FormatTable, "":
		return table(w)
	default:
		return validateOutputFormat(format)
	}
}

// renderRecords prints recs with one column per field. columns restricts and
// orders the field columns; empty means every field, sorted by name.
func renderRecords(w io.Writer, format string, recs []*records.Record, columns []string) error {
	views := make([]RecordView, 0, len(recs))
	for _, record := range recs {
		views = append(views, newRecordView(record))
	}

	return renderValue(w, format, views, func(w io.Writer) error {
		if len(columns) == 0 {
			columns = fieldNames(recs)
		}

		header := make([]any, 0, len(columns)+1)
		header = append(header, "ID")

		for _, column := range columns {
			header = append(header, column)
		}

		table := tablewriter.NewWriter(w)
		table.Header(header...)

		for _, record := range recs {
			row := make([]string, 0, len(columns)+1)
			row = append(row, record.ID())

			for _, column := range columns {
				row = append(row, formatCell(record.Get(column)))
			}

			_ = table.Append(row)
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}

// renderRecord prints one record as a property table.
func renderRecord(w io.Writer, format string, record *records.Record) error {
	return renderValue(w, format, newRecordView(record), func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Field", "Value")

		_ = table.Append([]string{"ID", record.ID()})

		if !record.CreatedAt().IsZero() {
			_ = table.Append([]string{"Created", record.CreatedAt().UTC().Format(time.RFC3339)})
		}

		fields := record.Fields()
		for _, name := range sortedKeys(fields) {
			_ = table.Append([]string{name, formatCell(fields[name])})
		}

		_ = table.Append([]string{"URL", record.URL()})

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}

// renderMetrics prints the per-endpoint request statistics.
func renderMetrics(w io.Writer, format string, collector *airrecord.MetricsCollector) error {
	endpoints := collector.Endpoints()

	snapshot := make(map[string]airrecord.Metrics, len(endpoints))
	for _, endpoint := range endpoints {
		metrics, _ := collector.GetMetrics(endpoint)
		snapshot[endpoint] = metrics
	}

	return renderValue(w, format, snapshot, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Endpoint", "Requests", "Errors", "Avg Latency")

		for _, endpoint := range endpoints {
			metrics := snapshot[endpoint]
			_ = table.Append([]string{
				endpoint,
				fmt.Sprintf("%d", metrics.TotalRequests),
				fmt.Sprintf("%d", metrics.TotalErrors),
				metrics.AverageLatency.Round(time.Millisecond).String(),
			})
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render metrics table: %w", err)
		}

		return nil
	})
}

func fieldNames(recs []*records.Record) []string {
	seen := map[string]bool{}

	var names []string

	for _, record := range recs {
		for name := range record.Fields() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)

	return names
}

func sortedKeys(fields airrecord.Fields) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// formatCell renders a field value on one line.
func formatCell(value interface{}) string {
	var text string

	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		text = typed
	case []interface{}, map[string]interface{}:
		encoded, err := json.Marshal(typed)
		if err != nil {
			text = fmt.Sprint(typed)
		} else {
			text = string(encoded)
		}
	default:
		text = fmt.Sprint(typed)
	}

	text = strings.ReplaceAll(text, "\n", " ")
	if len([]rune(text)) > maxCellWidth {
		text = string([]rune(text)[:maxCellWidth-3]) + "..."
	}

	return text
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// propertyLabel turns a config key such as no_throttle into "No Throttle".
func propertyLabel(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// parseFieldAssignments turns name=value pairs into fields. Values that parse
// as JSON keep their JSON type; anything else is a string.
func parseFieldAssignments(assignments []string) (airrecord.Fields, error) {
	fields := make(airrecord.Fields, len(assignments))

	for _, assignment := range assignments {
		name, value, found := strings.Cut(assignment, "=")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFieldAssignment, assignment)
		}

		fields[strings.TrimSpace(name)] = parseFieldValue(value)
	}

	return fields, nil
}

func parseFieldValue(value string) interface{} {
	var decoded interface{}

	err := json.Unmarshal([]byte(value), &decoded)
	if err != nil {
		return value
	}

	return decoded
}

// parseSorts turns field[:asc|desc] specs into sorts.
func parseSorts(specs []string) ([]records.Sort, error) {
	sorts := make([]records.Sort, 0, len(specs))

	for _, spec := range specs {
		field, direction, _ := strings.Cut(spec, ":")
		if field == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidSort, spec)
		}

		direction = strings.ToLower(direction)
		if direction == "" {
			direction = constants.SortAscending
		}

		if direction != constants.SortAscending && direction != constants.SortDescending {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidSort, spec)
		}

		sorts = append(sorts, records.Sort{Field: field, Direction: direction})
	}

	return sorts, nil
}

// readImportFile loads a JSON or YAML list of field maps.
func readImportFile(path string) ([]airrecord.Fields, error) {
	extension := strings.ToLower(filepath.Ext(path))
	if !slices.Contains([]string{".json", ".yaml", ".yml"}, extension) {
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedImportFile, path)
	}

	// path is supplied by the user running the CLI
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	var rows []map[string]interface{}

	if extension == ".json" {
		err = json.Unmarshal(data, &rows)
	} else {
		err = yaml.Unmarshal(data, &rows)
	}

	if err != nil {
		return nil, fmt.Errorf("parsing import file %s: %w", path, err)
	}

	out := make([]airrecord.Fields, 0, len(rows))
	for _, row := range rows {
		out = append(out, airrecord.Fields(row))
	}

	return out, nil
}
