// Package formula builds filterByFormula expressions for list queries.
//
// Every function is a pure string builder:
//
//	formula.AllOf(
//	  formula.FieldIsAny("Status", "Active", "Pending"),
//	  formula.NoneOf("{Archived}"),
//	)
//	// AND(OR(Status='Active',Status='Pending'),NOT(AND({Archived})))
package formula

import (
	"fmt"
	"strings"
)

// AllOf joins expressions with AND.
func AllOf(exprs ...string) string {
	return "AND(" + strings.Join(exprs, ",") + ")"
}

// AnyOf joins expressions with OR.
func AnyOf(exprs ...string) string {
	return "OR(" + strings.Join(exprs, ",") + ")"
}

// NoneOf negates AllOf.
func NoneOf(exprs ...string) string {
	return "NOT(" + AllOf(exprs...) + ")"
}

var quoteEscaper = strings.NewReplacer(`'`, `\'`, `"`, `\"`)

// Sanitize escapes single and double quotes with a backslash so the value can
// be interpolated into a quoted formula literal. Nothing else is touched.
func Sanitize(value string) string {
	return quoteEscaper.Replace(value)
}

// FieldIsAny matches records whose field equals any of values, in the order
// given.
func FieldIsAny(field string, values ...string) string {
	clauses := make([]string, 0, len(values))
	for _, value := range values {
		clauses = append(clauses, fmt.Sprintf("%s='%s'", field, Sanitize(value)))
	}

	return AnyOf(clauses...)
}

// RecordIDIs matches the record with the given id.
func RecordIDIs(id string) string {
	return fmt.Sprintf("RECORD_ID() = '%s'", Sanitize(id))
}
