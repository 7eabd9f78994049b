package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType enumerates the column types a relation schema can carry.
type FieldType int

// Supported column types.
const (
	String FieldType = iota
	Int32
	Int64
	Double
	Timestamp // epoch milliseconds
)

// Field is a single named, typed column of a relation schema.
type Field struct {
	Name string
	Type FieldType
}

// Schema describes the columns of a relation. Relations read from raw
// JSON carry an empty schema until they are projected with Select.
type Schema struct {
	Name   string
	Fields []Field
}

// Columns returns the column names of the schema, in declaration order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Row is a single record of a relation, keyed by column name.
type Row map[string]interface{}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	clone := make(Row, len(r))
	for k, v := range r {
		clone[k] = v
	}
	return clone
}

// Relation is an immutable, schema-typed sequence of rows. Every
// operation returns a new Relation and leaves the receiver untouched.
type Relation struct {
	schema Schema
	rows   []Row
}

// NewRelation constructs a relation over the given rows.
func NewRelation(schema Schema, rows []Row) *Relation {
	return &Relation{schema: schema, rows: rows}
}

// Schema returns the relation's schema.
func (r *Relation) Schema() Schema {
	return r.schema
}

// Rows returns the relation's rows. Callers must not mutate them.
func (r *Relation) Rows() []Row {
	return r.rows
}

// Len returns the number of rows in the relation.
func (r *Relation) Len() int {
	return len(r.rows)
}

// Filter returns the rows for which pred holds.
func (r *Relation) Filter(pred func(Row) bool) *Relation {
	kept := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		if pred(row) {
			kept = append(kept, row)
		}
	}
	return &Relation{schema: r.schema, rows: kept}
}

// Map applies fn to every row, keeping the schema.
func (r *Relation) Map(fn func(Row) Row) *Relation {
	mapped := make([]Row, len(r.rows))
	for i, row := range r.rows {
		mapped[i] = fn(row)
	}
	return &Relation{schema: r.schema, rows: mapped}
}

// Select projects every row through the given function into a relation
// with the given schema. Projected values are coerced to their declared
// column types, so relations originating from JSON and from Parquet
// compare equal.
func (r *Relation) Select(schema Schema, project func(Row) Row) *Relation {
	rows := make([]Row, len(r.rows))
	for i, row := range r.rows {
		projected := project(row)
		typed := make(Row, len(schema.Fields))
		for _, f := range schema.Fields {
			typed[f.Name] = coerce(projected[f.Name], f.Type)
		}
		rows[i] = typed
	}
	return &Relation{schema: schema, rows: rows}
}

// Distinct removes duplicate rows, comparing the schema's columns.
// First occurrence order is preserved.
func (r *Relation) Distinct() *Relation {
	seen := make(map[string]bool, len(r.rows))
	kept := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		fp := fingerprint(row, r.schema.Columns())
		if seen[fp] {
			continue
		}
		seen[fp] = true
		kept = append(kept, row)
	}
	return &Relation{schema: r.schema, rows: kept}
}

// Join inner-joins the receiver against right on equality of
// leftKey/rightKey. Rows with a null key on either side never match.
// Each matching pair is combined into an output row; left rows without
// a counterpart are dropped from the result.
func (r *Relation) Join(right *Relation, leftKey, rightKey string, combine func(left, right Row) Row) *Relation {
	index := make(map[string][]Row, right.Len())
	for _, row := range right.rows {
		key, ok := joinKey(row[rightKey])
		if !ok {
			continue
		}
		index[key] = append(index[key], row)
	}

	joined := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		key, ok := joinKey(row[leftKey])
		if !ok {
			continue
		}
		for _, match := range index[key] {
			joined = append(joined, combine(row, match))
		}
	}
	return &Relation{schema: r.schema, rows: joined}
}

// NotNull is a Filter predicate that drops rows whose column is absent,
// null, or an empty string.
func NotNull(col string) func(Row) bool {
	return func(r Row) bool {
		v, ok := r[col]
		return ok && v != nil && v != ""
	}
}

func joinKey(v interface{}) (string, bool) {
	if v == nil || v == "" {
		return "", false
	}
	return fmt.Sprintf("%v", coerceScalar(v)), true
}

func fingerprint(row Row, cols []string) string {
	var b strings.Builder
	for _, col := range cols {
		v := row[col]
		if v == nil {
			b.WriteString("\x00")
		} else {
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteString("\x1f")
	}
	return b.String()
}

// coerce converts a value to the canonical in-memory representation of
// the given column type: string, int64, or float64. Nil stays nil.
func coerce(v interface{}, t FieldType) interface{} {
	if v == nil {
		return nil
	}
	switch t {
	case String:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	case Int32, Int64, Timestamp:
		return coerceInt(v)
	case Double:
		return coerceFloat(v)
	}
	return v
}

func coerceScalar(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
		return n
	case float32:
		return coerceScalar(float64(n))
	case int:
		return int64(n)
	case int32:
		return int64(n)
	}
	return v
}

func coerceInt(v interface{}) interface{} {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil
		}
		return parsed
	}
	return nil
}

func coerceFloat(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil
		}
		return parsed
	}
	return nil
}
