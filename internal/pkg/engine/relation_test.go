package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testSchema = Schema{
	Name: "test",
	Fields: []Field{
		{Name: "id", Type: String},
		{Name: "count", Type: Int64},
	},
}

func TestFilter(t *testing.T) {
	rel := NewRelation(testSchema, []Row{
		{"id": "a", "count": int64(1)},
		{"id": nil, "count": int64(2)},
		{"id": "", "count": int64(3)},
	})

	filtered := rel.Filter(NotNull("id"))
	assert.Equal(t, 1, filtered.Len())
	assert.Equal(t, "a", filtered.Rows()[0]["id"])

	// The source relation is untouched
	assert.Equal(t, 3, rel.Len())
}

func TestNotNull(t *testing.T) {
	var notNullTests = []struct {
		row      Row
		expected bool
	}{
		{Row{"id": "a"}, true},
		{Row{"id": nil}, false},
		{Row{"id": ""}, false},
		{Row{}, false},
		{Row{"id": float64(0)}, true},
	}

	pred := NotNull("id")
	for _, test := range notNullTests {
		assert.Equal(t, test.expected, pred(test.row), "%v", test.row)
	}
}

func TestSelectCoercesTypes(t *testing.T) {
	// JSON decoding produces float64 for every number; Select must
	// land values in the schema's canonical types.
	raw := NewRelation(Schema{}, []Row{
		{"identifier": "a", "total": float64(42)},
	})

	selected := raw.Select(testSchema, func(r Row) Row {
		return Row{"id": r["identifier"], "count": r["total"]}
	})

	assert.Equal(t, 1, selected.Len())
	assert.Equal(t, "a", selected.Rows()[0]["id"])
	assert.Equal(t, int64(42), selected.Rows()[0]["count"])
}

func TestSelectKeepsNulls(t *testing.T) {
	raw := NewRelation(Schema{}, []Row{{"identifier": "a"}})

	selected := raw.Select(testSchema, func(r Row) Row {
		return Row{"id": r["identifier"], "count": r["total"]}
	})

	assert.Nil(t, selected.Rows()[0]["count"])
}

func TestDistinct(t *testing.T) {
	rel := NewRelation(testSchema, []Row{
		{"id": "a", "count": int64(1)},
		{"id": "a", "count": int64(1)},
		{"id": "a", "count": int64(2)},
		{"id": "b", "count": int64(1)},
		{"id": nil, "count": int64(1)},
		{"id": nil, "count": int64(1)},
	})

	distinct := rel.Distinct()
	assert.Equal(t, 4, distinct.Len())

	// First occurrence order is preserved
	assert.Equal(t, "a", distinct.Rows()[0]["id"])
	assert.Equal(t, int64(1), distinct.Rows()[0]["count"])
}

func TestMap(t *testing.T) {
	rel := NewRelation(testSchema, []Row{{"id": "a", "count": int64(1)}})

	mapped := rel.Map(func(r Row) Row {
		row := r.Clone()
		row["count"] = int64(99)
		return row
	})

	assert.Equal(t, int64(99), mapped.Rows()[0]["count"])
	assert.Equal(t, int64(1), rel.Rows()[0]["count"])
}

func TestJoinInner(t *testing.T) {
	left := NewRelation(Schema{}, []Row{
		{"song": "Song A", "user": "10"},
		{"song": "Song B", "user": "11"},
		{"song": nil, "user": "12"},
	})
	right := NewRelation(Schema{}, []Row{
		{"title": "Song A", "item_id": "S1"},
		{"title": "Song C", "item_id": "S3"},
	})

	joined := left.Join(right, "song", "title", func(l, r Row) Row {
		row := l.Clone()
		row["item_id"] = r["item_id"]
		return row
	})

	// Unmatched and null-keyed rows vanish; the join can only shrink
	assert.Equal(t, 1, joined.Len())
	assert.Equal(t, "10", joined.Rows()[0]["user"])
	assert.Equal(t, "S1", joined.Rows()[0]["item_id"])
}

func TestJoinNumericKeysMatchAcrossTypes(t *testing.T) {
	left := NewRelation(Schema{}, []Row{{"k": float64(5)}})
	right := NewRelation(Schema{}, []Row{{"k": int64(5), "v": "x"}})

	joined := left.Join(right, "k", "k", func(l, r Row) Row {
		return r
	})
	assert.Equal(t, 1, joined.Len())
}

func TestCoerce(t *testing.T) {
	var coerceTests = []struct {
		value    interface{}
		fType    FieldType
		expected interface{}
	}{
		{"foo", String, "foo"},
		{nil, String, nil},
		{float64(2000), Int32, int64(2000)},
		{float64(1541121934796), Timestamp, int64(1541121934796)},
		{int(7), Int64, int64(7)},
		{"12", Int64, int64(12)},
		{float64(180), Double, float64(180)},
		{int64(180), Double, float64(180)},
		{"40.7", Double, float64(40.7)},
	}

	for _, test := range coerceTests {
		assert.Equal(t, test.expected, coerce(test.value, test.fType), "%v", test.value)
	}
}

func TestSchemaColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "count"}, testSchema.Columns())
}
