package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/formula"
	"github.com/airrecord-go/airrecord/pkg/records"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewRecordsCommand creates the records command group.
func NewRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record", "rec"},
		Short:   "Manage table records",
		Long:    "List, read, create, update, upsert, import and delete records",
	}

	cmd.AddCommand(newRecordsListCommand())
	cmd.AddCommand(newRecordsGetCommand())
	cmd.AddCommand(newRecordsFindManyCommand())
	cmd.AddCommand(newRecordsCreateCommand())
	cmd.AddCommand(newRecordsUpdateCommand())
	cmd.AddCommand(newRecordsDeleteCommand())
	cmd.AddCommand(newRecordsCommentCommand())
	cmd.AddCommand(newRecordsUpsertCommand())
	cmd.AddCommand(newRecordsImportCommand())

	return cmd
}

// withSession runs fn against a fresh session and prints statistics after
// a successful run.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	err = fn(s)
	closeErr := s.close(cmd.OutOrStdout())

	if err != nil {
		return err
	}

	return closeErr
}

func newRecordsListCommand() *cobra.Command {
	var (
		filter     string
		matches    []string
		sortSpecs  []string
		view       string
		fields     []string
		maxRecords int
		pageSize   int
		noPaginate bool
	)

	cmd := &cobra.Command{
		Use:   "list TABLE",
		Short: "List records",
		Long:  "List the records of a table, following every page unless --no-paginate is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sorts, err := parseSorts(sortSpecs)
			if err != nil {
				return err
			}

			combined, err := buildListFilter(filter, matches)
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				found, err := s.table(args[0]).Records(cmd.Context(), &records.ListOptions{
					Filter:            combined,
					Sort:              sorts,
					View:              view,
					Fields:            fields,
					MaxRecords:        maxRecords,
					PageSize:          pageSize,
					DisablePagination: noPaginate,
				})
				if err != nil {
					return err
				}

				return renderRecords(cmd.OutOrStdout(), s.output, found, fields)
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filterByFormula expression")
	cmd.Flags().StringArrayVar(&matches, "match", nil, "FIELD=VALUE[,VALUE...] equality filter (repeatable)")
	cmd.Flags().StringArrayVar(&sortSpecs, "sort", nil, "sort by FIELD[:asc|desc] (repeatable)")
	cmd.Flags().StringVar(&view, "view", "", "view name or id")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "maximum number of records")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page")
	cmd.Flags().BoolVar(&noPaginate, "no-paginate", false, "fetch only the first page")

	return cmd
}

// buildListFilter ANDs the raw filter with one FieldIsAny clause per match.
func buildListFilter(filter string, matches []string) (string, error) {
	var clauses []string

	if filter != "" {
		clauses = append(clauses, filter)
	}

	for _, match := range matches {
		field, values, found := strings.Cut(match, "=")
		if !found || field == "" {
			return "", fmt.Errorf("%w: %q", constants.ErrInvalidFieldAssignment, match)
		}

		clauses = append(clauses, formula.FieldIsAny("{"+field+"}", strings.Split(values, ",")...))
	}

	switch len(clauses) {
	case 0:
		return "", nil
	case 1:
		return clauses[0], nil
	default:
		return formula.AllOf(clauses...), nil
	}
}

func newRecordsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get TABLE RECORD_ID",
		Short: "Get a record",
		Long:  "Display a single record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				record, err := s.table(args[0]).Find(cmd.Context(), args[1])
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), s.output, record)
			})
		},
	}
}

func newRecordsFindManyCommand() *cobra.Command {
	var (
		where     string
		sortSpecs []string
	)

	cmd := &cobra.Command{
		Use:   "find-many TABLE RECORD_ID...",
		Short: "Get several records by id",
		Long:  "Fetch records by id in a single query, printed in the order the ids were given",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sorts, err := parseSorts(sortSpecs)
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				found, err := s.table(args[0]).FindMany(cmd.Context(), args[1:], where, sorts)
				if err != nil {
					return err
				}

				return renderRecords(cmd.OutOrStdout(), s.output, found, nil)
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "additional filterByFormula expression")
	cmd.Flags().StringArrayVar(&sortSpecs, "sort", nil, "sort by FIELD[:asc|desc] (repeatable)")

	return cmd
}

func writeOptions(typecast bool) []airrecord.WriteOption {
	if typecast {
		return []airrecord.WriteOption{airrecord.WithTypecast()}
	}

	return nil
}

func newRecordsCreateCommand() *cobra.Command {
	var (
		assignments []string
		typecast    bool
	)

	cmd := &cobra.Command{
		Use:   "create TABLE",
		Short: "Create a record",
		Long:  "Create a record from --field NAME=VALUE assignments. Values are parsed as JSON when possible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseRequiredFields(assignments)
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				record := s.table(args[0]).New(fields)

				err := record.Save(cmd.Context(), writeOptions(typecast)...)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), s.output, record)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&assignments, "field", "f", nil, "field assignment NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&typecast, "typecast", false, "let the server convert string values")

	return cmd
}

func newRecordsUpdateCommand() *cobra.Command {
	var (
		assignments []string
		typecast    bool
	)

	cmd := &cobra.Command{
		Use:   "update TABLE RECORD_ID",
		Short: "Update a record",
		Long:  "Patch the given fields of a record. Fields already holding the value are not sent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseRequiredFields(assignments)
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				record, err := s.table(args[0]).Find(cmd.Context(), args[1])
				if err != nil {
					return err
				}

				for name, value := range fields {
					record.Set(name, value)
				}

				err = record.Save(cmd.Context(), writeOptions(typecast)...)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), s.output, record)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&assignments, "field", "f", nil, "field assignment NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&typecast, "typecast", false, "let the server convert string values")

	return cmd
}

func newRecordsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TABLE RECORD_ID...",
		Short: "Delete records",
		Long:  "Delete one or more records by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				table := s.table(args[0])

				for _, id := range args[1:] {
					err := table.Delete(cmd.Context(), id)
					if err != nil {
						return err
					}

					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}

				return nil
			})
		},
	}
}

func newRecordsCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "comment TABLE RECORD_ID TEXT",
		Short: "Comment on a record",
		Long:  "Add a comment to a record and print the comment id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				record, err := s.table(args[0]).Find(cmd.Context(), args[1])
				if err != nil {
					return err
				}

				commentID, err := record.Comment(cmd.Context(), args[2])
				if err != nil {
					return err
				}

				result := map[string]string{"record": record.ID(), "comment": commentID}

				return renderValue(cmd.OutOrStdout(), s.output, result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added comment %s to %s\n", commentID, record.ID())

					return err
				})
			})
		},
	}
}

func newRecordsUpsertCommand() *cobra.Command {
	var (
		assignments []string
		mergeOn     []string
		typecast    bool
	)

	cmd := &cobra.Command{
		Use:   "upsert TABLE",
		Short: "Create or update a record",
		Long:  "Create a record, or update the one whose --merge-on fields match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(mergeOn) == 0 {
				return constants.ErrMergeFieldsRequired
			}

			fields, err := parseRequiredFields(assignments)
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				record, err := s.table(args[0]).Upsert(cmd.Context(), fields, mergeOn, writeOptions(typecast)...)
				if err != nil {
					return err
				}

				if record == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No record returned")

					return nil
				}

				return renderRecord(cmd.OutOrStdout(), s.output, record)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&assignments, "field", "f", nil, "field assignment NAME=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&mergeOn, "merge-on", nil, "fields to match existing records on")
	cmd.Flags().BoolVar(&typecast, "typecast", false, "let the server convert string values")

	return cmd
}

func newRecordsImportCommand() *cobra.Command {
	var (
		mergeOn  []string
		typecast bool
	)

	cmd := &cobra.Command{
		Use:   "import TABLE FILE",
		Short: "Import records from a file",
		Long: `Create records from a JSON or YAML list of field maps, ten per request.
With --merge-on the records are upserted instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readImportFile(args[1])
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				table := s.table(args[0])

				recs := make([]*records.Record, 0, len(rows))
				for _, fields := range rows {
					recs = append(recs, table.New(fields))
				}

				if len(mergeOn) == 0 {
					created, err := table.BatchCreate(cmd.Context(), recs, writeOptions(typecast)...)
					if err != nil {
						return fmt.Errorf("imported %d of %d records: %w", len(created), len(recs), err)
					}

					return renderRecords(cmd.OutOrStdout(), s.output, created, nil)
				}

				result, err := table.BatchUpsert(cmd.Context(), recs, mergeOn, records.UpsertOptions{}, writeOptions(typecast)...)
				if err != nil {
					return fmt.Errorf("upserted %d of %d records: %w", len(result.Rows), len(recs), err)
				}

				return renderUpsertResult(cmd.OutOrStdout(), s.output, result)
			})
		},
	}

	cmd.Flags().StringSliceVar(&mergeOn, "merge-on", nil, "upsert, matching existing records on these fields")
	cmd.Flags().BoolVar(&typecast, "typecast", false, "let the server convert string values")

	return cmd
}

func renderUpsertResult(w io.Writer, format string, result *records.UpsertResult) error {
	summary := map[string]interface{}{
		"created": result.CreatedIDs,
		"updated": result.UpdatedIDs,
	}

	return renderValue(w, format, summary, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Record", "Action")

		for _, id := range result.CreatedIDs {
			_ = table.Append([]string{id, "created"})
		}

		for _, id := range result.UpdatedIDs {
			_ = table.Append([]string{id, "updated"})
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}

func parseRequiredFields(assignments []string) (airrecord.Fields, error) {
	if len(assignments) == 0 {
		return nil, constants.ErrNoFieldsGiven
	}

	return parseFieldAssignments(assignments)
}
