package executor

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/dot5enko/colstore/bits"
	"github.com/dot5enko/colstore/manager/query"
	"github.com/dot5enko/colstore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSegment struct {
	id       uint64
	columns  []*schema.ColumnVector
	liveness *bits.Bitfield
	loads    int
}

func (m *memSegment) Id() uint64 { return m.id }

func (m *memSegment) Rows() int { return m.liveness.Len() }

func (m *memSegment) Liveness() *bits.Bitfield { return m.liveness.Clone() }

func (m *memSegment) ColumnHeader(column int) (schema.ColumnBlockHeader, bool) {
	if column >= len(m.columns) {
		return schema.ColumnBlockHeader{}, false
	}

	vec := m.columns[column]
	header := schema.ColumnBlockHeader{DataType: vec.Type, NullCount: uint32(vec.NullCount())}
	header.Bounds, header.HasBounds = vec.Bounds()
	header.HasNaN = vec.NaNCount() > 0
	return header, true
}

func (m *memSegment) Column(column int, typ schema.FieldType) (*schema.ColumnVector, error) {
	m.loads++
	if column >= len(m.columns) {
		return schema.NullColumnVector(typ, m.Rows()), nil
	}
	return m.columns[column], nil
}

var employees = schema.Schema{
	Name:    "employees",
	Version: 1,
	Columns: []schema.SchemaColumn{
		{Name: "Name", Type: schema.StringFieldType},
		{Name: "Dept", Type: schema.StringFieldType},
		{Name: "Salary", Type: schema.Int64FieldType},
	},
}

type employee struct {
	name   string
	dept   string
	salary any
}

func segmentOf(id uint64, rows ...employee) *memSegment {
	names := schema.NewColumnVector(schema.StringFieldType, len(rows))
	depts := schema.NewColumnVector(schema.StringFieldType, len(rows))
	salaries := schema.NewColumnVector(schema.Int64FieldType, len(rows))

	for _, r := range rows {
		names.Append(schema.StringValue(r.name))
		depts.Append(schema.StringValue(r.dept))
		if r.salary == nil {
			salaries.Append(schema.NullValue(schema.Int64FieldType))
		} else {
			salaries.Append(schema.Int64Value(int64(r.salary.(int))))
		}
	}

	return &memSegment{
		id:       id,
		columns:  []*schema.ColumnVector{names, depts, salaries},
		liveness: bits.NewBitfield(len(rows), true),
	}
}

func testSegments() []Segment {
	return []Segment{
		segmentOf(1,
			employee{"ann", "eng", 50000},
			employee{"bob", "ops", 90000},
			employee{"cid", "eng", 120000},
		),
		segmentOf(2,
			employee{"dan", "ops", 70000},
			employee{"eve", "eng", 30000},
		),
	}
}

func compile(t *testing.T, p *query.Plan) *query.Compiled {
	t.Helper()
	c, err := query.Compile(p, employees)
	require.NoError(t, err)
	return c
}

func ints(t *testing.T, values []schema.Value) []int64 {
	t.Helper()
	out := make([]int64, len(values))
	for i, v := range values {
		require.False(t, v.Null)
		out[i] = v.Int
	}
	return out
}

func TestNewClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, New(0, nil).Workers())
	assert.Equal(t, 4, New(4, nil).Workers())
}

func TestSortHeadSalaries(t *testing.T) {
	ex := New(2, nil)

	res, err := ex.Execute(context.Background(), compile(t, query.New().Sort(query.Descending, "Salary").Head(3)), testSegments())
	require.NoError(t, err)

	salaries, err := res.Column("Salary")
	require.NoError(t, err)
	assert.Equal(t, []int64{120000, 90000, 70000}, ints(t, salaries))

	id, ok := res.RowID(0)
	require.True(t, ok)
	assert.Equal(t, schema.RowID{Segment: 1, Offset: 2}, id)
}

func TestFilterRespectsLiveness(t *testing.T) {
	segments := testSegments()
	segments[0].(*memSegment).liveness.Clear(1)

	ex := New(4, nil)
	plan := compile(t, query.New().Filter("Salary", query.GreaterOrEqual, 70000).Project("Name"))

	res, err := ex.Execute(context.Background(), plan, segments)
	require.NoError(t, err)

	names, err := res.Column("Name")
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "cid", names[0].Str)
	assert.Equal(t, "dan", names[1].Str)
	assert.Equal(t, []string{"Name"}, res.ColumnNames())

	count, err := ex.Count(context.Background(), plan, segments)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBoundsPruningSkipsDecoding(t *testing.T) {
	segments := testSegments()

	ex := New(1, nil)
	plan := compile(t, query.New().Filter("Salary", query.GreaterThan, 100000))

	selections, stats, err := ex.Select(context.Background(), plan, segments)
	require.NoError(t, err)

	require.Len(t, selections, 1)
	assert.Equal(t, []uint32{2}, selections[0].Offsets)
	assert.Equal(t, 1, stats.PrunedByBounds)
	assert.Equal(t, 1, stats.SkippedSegments)
	assert.Equal(t, 0, segments[1].(*memSegment).loads)
}

func TestGroupByFirstSeenOrder(t *testing.T) {
	ex := New(2, nil)

	plan := compile(t, query.New().
		GroupByAggregate("Dept", "Salary", query.Sum, "total").
		GroupByAggregate("Dept", "", query.Count, ""))

	res, err := ex.Execute(context.Background(), plan, testSegments())
	require.NoError(t, err)

	require.Equal(t, []string{"Dept", "total", "count"}, res.ColumnNames())
	require.Equal(t, 2, res.Len())

	assert.Equal(t, "eng", res.Row(0)[0].Str)
	assert.Equal(t, int64(200000), res.Row(0)[1].Int)
	assert.Equal(t, int64(3), res.Row(0)[2].Int)
	assert.Equal(t, "ops", res.Row(1)[0].Str)
	assert.Equal(t, int64(160000), res.Row(1)[1].Int)

	_, ok := res.RowID(0)
	assert.False(t, ok)
}

func TestGroupSortedByAggregate(t *testing.T) {
	ex := New(2, nil)

	plan := compile(t, query.New().
		GroupByAggregate("Dept", "Salary", query.Mean, "avg").
		Sort(query.Descending, "avg"))

	res, err := ex.Execute(context.Background(), plan, testSegments())
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.Equal(t, "ops", res.Row(0)[0].Str)
	assert.Equal(t, schema.Float64FieldType, res.Row(0)[1].Type)
	assert.InDelta(t, 80000.0, res.Row(0)[1].Float, 1e-9)
}

func TestGlobalAggregates(t *testing.T) {
	segments := testSegments()
	segments = append(segments, segmentOf(3, employee{"fay", "eng", nil}))

	ex := New(2, nil)
	plan := compile(t, query.New().
		GroupByAggregate("", "Salary", query.Min, "lo").
		GroupByAggregate("", "Salary", query.Max, "hi").
		GroupByAggregate("", "Salary", query.Count, "salaries").
		GroupByAggregate("", "", query.Count, "rows"))

	res, err := ex.Execute(context.Background(), plan, segments)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())

	row := res.Row(0)
	assert.Equal(t, int64(30000), row[0].Int)
	assert.Equal(t, int64(120000), row[1].Int)
	assert.Equal(t, int64(5), row[2].Int)
	assert.Equal(t, int64(6), row[3].Int)
}

func TestMeanOverNoRowsFails(t *testing.T) {
	ex := New(2, nil)

	global := compile(t, query.New().
		Filter("Salary", query.GreaterThan, 1_000_000).
		GroupByAggregate("", "Salary", query.Mean, "avg"))

	_, err := ex.Execute(context.Background(), global, testSegments())
	assert.ErrorIs(t, err, query.ErrEmptyAggregation)

	nullOnly := []Segment{segmentOf(1, employee{"ann", "eng", nil})}
	keyed := compile(t, query.New().GroupByAggregate("Dept", "Salary", query.Mean, "avg"))

	_, err = ex.Execute(context.Background(), keyed, nullOnly)
	assert.ErrorIs(t, err, query.ErrEmptyAggregation)

	sum := compile(t, query.New().
		Filter("Salary", query.GreaterThan, 1_000_000).
		GroupByAggregate("", "Salary", query.Sum, "total"))

	res, err := ex.Execute(context.Background(), sum, testSegments())
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Row(0)[0].Int)
}

func TestNullsSortLast(t *testing.T) {
	segments := []Segment{segmentOf(1,
		employee{"a", "x", nil},
		employee{"b", "x", 10},
		employee{"c", "x", 5},
	)}

	ex := New(1, nil)
	for _, dir := range []query.Direction{query.Ascending, query.Descending} {
		res, err := ex.Execute(context.Background(), compile(t, query.New().Sort(dir, "Salary")), segments)
		require.NoError(t, err)

		salaries, err := res.Column("Salary")
		require.NoError(t, err)
		assert.True(t, salaries[2].Null, "direction %d", dir)
	}
}

func TestCursorReleasesSnapshot(t *testing.T) {
	ex := New(2, nil)
	released := 0

	cursor, err := ex.Cursor(context.Background(), compile(t, query.New().Sort(query.Ascending, "Name")), testSegments(), func() { released++ })
	require.NoError(t, err)

	names := []string{}
	for cursor.Next() {
		v, err := cursor.Value("Name")
		require.NoError(t, err)
		names = append(names, v.Str)
	}
	require.NoError(t, cursor.Err())
	assert.Equal(t, []string{"ann", "bob", "cid", "dan", "eve"}, names)
	assert.Equal(t, 1, released)

	require.NoError(t, cursor.Close())
	assert.Equal(t, 1, released)
	assert.False(t, cursor.Next())
}

func TestScanSkipsDeletedRowsAndEmptySegments(t *testing.T) {
	segments := testSegments()
	segments[1].(*memSegment).liveness.Reset()
	segments[0].(*memSegment).liveness.Clear(0)

	cursor := Scan(employees, segments, nil)
	defer cursor.Close()

	ids := []string{}
	for cursor.Next() {
		ids = append(ids, fmt.Sprintf("%s=%s", cursor.RowID(), cursor.Row()[0]))
	}
	require.NoError(t, cursor.Err())
	assert.Equal(t, []string{"1:1=bob", "1:2=cid"}, ids)
}

var readings = schema.Schema{
	Name:    "readings",
	Version: 1,
	Columns: []schema.SchemaColumn{
		{Name: "Sensor", Type: schema.StringFieldType},
		{Name: "F", Type: schema.Float64FieldType},
		{Name: "V", Type: schema.Int64FieldType},
	},
}

type reading struct {
	sensor string
	f      float64
	v      any
}

func readingsOf(id uint64, rows ...reading) *memSegment {
	sensors := schema.NewColumnVector(schema.StringFieldType, len(rows))
	floats := schema.NewColumnVector(schema.Float64FieldType, len(rows))
	values := schema.NewColumnVector(schema.Int64FieldType, len(rows))

	for _, r := range rows {
		sensors.Append(schema.StringValue(r.sensor))
		floats.Append(schema.Float64Value(r.f))
		if r.v == nil {
			values.Append(schema.NullValue(schema.Int64FieldType))
		} else {
			values.Append(schema.Int64Value(r.v.(int64)))
		}
	}

	return &memSegment{
		id:       id,
		columns:  []*schema.ColumnVector{sensors, floats, values},
		liveness: bits.NewBitfield(len(rows), true),
	}
}

func nanSegments() []Segment {
	nan := math.NaN()
	return []Segment{
		readingsOf(1, reading{"a", nan, int64(1)}, reading{"a", 1, int64(2)}, reading{"b", 2, int64(3)}),
		readingsOf(2, reading{"b", nan, int64(4)}, reading{"a", 5, int64(5)}, reading{"b", 0.5, int64(6)}),
	}
}

func compileReadings(t *testing.T, p *query.Plan) *query.Compiled {
	t.Helper()
	c, err := query.Compile(p, readings)
	require.NoError(t, err)
	return c
}

func TestNaNNeverMatchesOrderingFilters(t *testing.T) {
	ex := New(2, nil)

	cases := []struct {
		cmp      query.Comparator
		operand  any
		expected int
	}{
		{query.GreaterThan, 0, 4},
		{query.GreaterThan, 0.75, 3},
		{query.LessOrEqual, 5, 4},
		{query.Equals, "NaN", 0},
		{query.NotEquals, 1, 5},
		{query.NotEquals, 100, 6},
	}

	for _, tc := range cases {
		count, err := ex.Count(context.Background(), compileReadings(t, query.New().Filter("F", tc.cmp, tc.operand)), nanSegments())
		require.NoError(t, err)
		if count != tc.expected {
			t.Errorf("F %s %v: expected %d rows but got %d", tc.cmp, tc.operand, tc.expected, count)
		}
	}
}

func TestNaNRowsGroupTogether(t *testing.T) {
	ex := New(2, nil)

	res, err := ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("F", "", query.Count, "")), nanSegments())
	require.NoError(t, err)

	require.Equal(t, 5, res.Len())
	assert.True(t, math.IsNaN(res.Row(0)[0].Float))
	assert.Equal(t, int64(2), res.Row(0)[1].Int)
}

// A single-group plan and the ungrouped plan run different code paths over the same rows.
func TestGlobalAggregatesMatchGrouped(t *testing.T) {
	segments := []Segment{
		readingsOf(1,
			reading{"s", 1.5, int64(math.MaxInt64)},
			reading{"s", math.NaN(), int64(math.MaxInt64)},
			reading{"s", -2, nil},
		),
		readingsOf(2,
			reading{"s", 4, int64(-5)},
			reading{"s", 0.25, int64(3)},
		),
		readingsOf(3,
			reading{"s", 8, int64(math.MinInt64)},
		),
	}

	aggregations := []query.Aggregation{query.Mean, query.Min, query.Max, query.Count}

	ex := New(2, nil)
	for _, column := range []string{"F", "V"} {
		for _, agg := range aggregations {
			global, err := ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("", column, agg, "out")), segments)
			require.NoError(t, err)

			grouped, err := ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("Sensor", column, agg, "out")), segments)
			require.NoError(t, err)

			require.Equal(t, 1, global.Len())
			require.Equal(t, 1, grouped.Len())

			a, b := global.Row(0)[0], grouped.Row(0)[1]
			if !a.Equal(b) {
				t.Errorf("%s(%s): global %s but grouped %s", agg, column, a, b)
			}
		}
	}

	twoMax := []Segment{readingsOf(1,
		reading{"s", 0, int64(math.MaxInt64)},
		reading{"s", 0, int64(math.MaxInt64)},
	)}

	global, err := ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("", "V", query.Mean, "avg")), twoMax)
	require.NoError(t, err)
	assert.Equal(t, float64(math.MaxInt64), global.Row(0)[0].Float)
}

func TestIntSumOverflowFails(t *testing.T) {
	segments := []Segment{readingsOf(1,
		reading{"s", 0, int64(math.MaxInt64)},
		reading{"s", 0, int64(1)},
	)}

	ex := New(2, nil)

	_, err := ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("", "V", query.Sum, "total")), segments)
	assert.ErrorIs(t, err, query.ErrAggregateOverflow)

	_, err = ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("Sensor", "V", query.Sum, "total")), segments)
	assert.ErrorIs(t, err, query.ErrAggregateOverflow)

	// wrapping in the middle of the fold is fine as long as the total fits
	segments = append(segments, readingsOf(2, reading{"s", 0, int64(-2)}))
	res, err := ex.Execute(context.Background(), compileReadings(t, query.New().GroupByAggregate("", "V", query.Sum, "total")), segments)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-1), res.Row(0)[0].Int)
}
