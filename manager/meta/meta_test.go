package meta

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dot5enko/colstore/compression"
	"github.com/dot5enko/colstore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() []*schema.ColumnVector {
	ids := schema.NewColumnVector(schema.Int64FieldType, 100)
	names := schema.NewColumnVector(schema.StringFieldType, 100)

	for i := 0; i < 100; i++ {
		ids.Append(schema.Int64Value(int64(i * 3)))
		if i%10 == 0 {
			names.Append(schema.NullValue(schema.StringFieldType))
		} else {
			names.Append(schema.StringValue([]string{"red", "green", "blue"}[i%3]))
		}
	}

	return []*schema.ColumnVector{ids, names}
}

func newTestManager(t *testing.T, dir string) *SegmentManager {
	sm, err := NewSegmentManager(dir, compression.Lz4, 4, slog.Default())
	require.NoError(t, err)
	return sm
}

func TestSegmentWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	sm := newTestManager(t, dir)

	meta := NewMetaManager(dir, slog.Default())
	_, err := meta.Load()
	require.NoError(t, err)

	columns := testColumns()
	written, err := sm.WriteSegment(meta.GetIndex().StoreUid, 7, 1, columns)
	require.NoError(t, err)
	assert.Equal(t, 100, written.Rows())

	opened, err := sm.OpenSegment(7)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), opened.Id())
	assert.Equal(t, meta.GetIndex().StoreUid, opened.Header.StoreUid)
	assert.Equal(t, 100, opened.Liveness().Count())
	assert.Equal(t, uint32(10), opened.Header.Columns[1].NullCount)
	assert.True(t, opened.Header.Columns[0].HasBounds)
	assert.Equal(t, 297.0, opened.Header.Columns[0].Bounds.Max)

	for i, typ := range []schema.FieldType{schema.Int64FieldType, schema.StringFieldType} {
		vec, loadErr := sm.LoadColumn(opened, i, typ)
		require.NoError(t, loadErr)
		require.Equal(t, 100, vec.Len())

		for row := 0; row < 100; row++ {
			assert.True(t, columns[i].Value(row).Equal(vec.Value(row)))
		}
	}

	// served from cache the second time
	_, err = sm.LoadColumn(opened, 0, schema.Int64FieldType)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sm.CacheStats().Hits)

	// a column the segment predates
	missing, err := sm.LoadColumn(opened, 5, schema.BoolFieldType)
	require.NoError(t, err)
	assert.Equal(t, 100, missing.NullCount())
}

func TestCorruptBlockIsDetected(t *testing.T) {
	dir := t.TempDir()
	sm := newTestManager(t, dir)

	seg, err := sm.WriteSegment([16]byte{1}, 1, 1, testColumns())
	require.NoError(t, err)

	data, err := os.ReadFile(seg.Path())
	require.NoError(t, err)

	data[seg.Header.Columns[1].Offset] ^= 0xFF
	require.NoError(t, os.WriteFile(seg.Path(), data, 0644))

	opened, err := sm.OpenSegment(1)
	require.NoError(t, err)

	_, err = sm.LoadColumn(opened, 1, schema.StringFieldType)
	assert.ErrorIs(t, err, ErrCorruptSegment)

	data[10] ^= 0xFF
	require.NoError(t, os.WriteFile(seg.Path(), data, 0644))

	_, err = sm.OpenSegment(1)
	assert.ErrorIs(t, err, ErrCorruptSegment)
}

func TestDeletionsPersist(t *testing.T) {
	dir := t.TempDir()
	sm := newTestManager(t, dir)

	seg, err := sm.WriteSegment([16]byte{1}, 3, 1, testColumns())
	require.NoError(t, err)

	changed, err := seg.Delete(5)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = seg.Delete(5)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = seg.Delete(100)
	assert.ErrorIs(t, err, ErrRowNotFound)

	assert.Equal(t, 2, seg.DeleteMany(roaring.BitmapOf(5, 6, 7, 500)))
	assert.Equal(t, 97, seg.ActiveRows())

	require.NoError(t, seg.PersistDeletions())

	reopened, err := sm.OpenSegment(3)
	require.NoError(t, err)

	assert.Equal(t, 3, reopened.DeletedRows())
	live := reopened.Liveness()
	assert.False(t, live.Get(6))
	assert.True(t, live.Get(8))
	assert.Greater(t, reopened.SizeBytes(), seg.fileSize)
}

func TestRetireRemovesFilesAfterLastReference(t *testing.T) {
	dir := t.TempDir()
	sm := newTestManager(t, dir)

	seg, err := sm.WriteSegment([16]byte{1}, 4, 1, testColumns())
	require.NoError(t, err)

	seg.IncRef() // a reader
	sm.Retire(seg)

	_, err = os.Stat(seg.Path())
	require.NoError(t, err)

	seg.DecRef()

	_, err = os.Stat(seg.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestIndexAndOrphans(t *testing.T) {
	dir := t.TempDir()
	sm := newTestManager(t, dir)

	meta := NewMetaManager(dir, slog.Default())
	found, err := meta.Load()
	require.NoError(t, err)
	assert.False(t, found)

	first := meta.AllocateSegmentId()
	second := meta.AllocateSegmentId()
	assert.Equal(t, first+1, second)

	for _, id := range []uint64{first, second} {
		_, err = sm.WriteSegment(meta.GetIndex().StoreUid, id, 1, testColumns())
		require.NoError(t, err)
	}
	require.NoError(t, meta.StoreIndex([]uint64{second}))

	s, err := schema.Declare("t", []schema.SchemaColumn{{Name: "a", Type: schema.Int64FieldType}})
	require.NoError(t, err)
	require.NoError(t, meta.StoreSchemeToDisk(s))

	leftover := filepath.Join(dir, SegmentsDirName, "9.seg.tmp-123")
	require.NoError(t, os.WriteFile(leftover, []byte("x"), 0644))

	reloaded := NewMetaManager(dir, slog.Default())
	found, err = reloaded.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []uint64{second}, reloaded.GetIndex().Segments)
	assert.Equal(t, second+1, reloaded.GetIndex().NextSegmentId)
	assert.Equal(t, meta.GetIndex().StoreUid, reloaded.GetIndex().StoreUid)
	assert.Equal(t, "t", reloaded.GetSchema().Name)

	removed, err := sm.RemoveOrphans(map[uint64]bool{second: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.seg", "9.seg.tmp-123"}, removed)

	_, err = os.Stat(sm.GetSegmentPath(second))
	assert.NoError(t, err)
}
