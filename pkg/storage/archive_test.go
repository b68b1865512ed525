package storage

import (
	"path/filepath"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
)

func newArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open("", Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func record(t *testing.T, id, title string) []byte {
	t.Helper()
	rec := &codec.Record{Fields: []codec.Field{
		{Tag: "245", Indicators: "00", Subfields: []codec.Subfield{{Code: "a", Value: title}}},
	}}
	if id != "" {
		rec.Fields = append([]codec.Field{{Tag: "001", Value: id}}, rec.Fields...)
	}
	data, err := codec.NewRecordCodec().Encode(rec)
	require.NoError(t, err)
	return data
}

func TestArchive_PutGet(t *testing.T) {
	a := newArchive(t)
	data := record(t, "rec-1", "First")

	id, err := a.Put(data)
	require.NoError(t, err)
	assert.NotEqual(t, ksuid.Nil, id)

	got, err := a.Get(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	byRecordID, err := a.Lookup("rec-1")
	require.NoError(t, err)
	assert.Equal(t, id, byRecordID)
}

func TestArchive_PutRejectsInvalid(t *testing.T) {
	a := newArchive(t)
	_, err := a.Put([]byte("00010 garbage"))
	assert.ErrorIs(t, err, iso2709.ErrFormat)

	ids, err := a.List(ksuid.Nil, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestArchive_NotFound(t *testing.T) {
	a := newArchive(t)

	_, err := a.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, a.Delete(ksuid.New()), ErrNotFound)
	assert.ErrorIs(t, a.Update(ksuid.New(), record(t, "x", "y")), ErrNotFound)
}

func TestArchive_Delete(t *testing.T) {
	a := newArchive(t)
	id, err := a.Put(record(t, "rec-1", "First"))
	require.NoError(t, err)

	require.NoError(t, a.Delete(id))

	_, err = a.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Lookup("rec-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchive_DeleteKeepsNewerIndex(t *testing.T) {
	a := newArchive(t)
	older, err := a.Put(record(t, "rec-1", "Old"))
	require.NoError(t, err)
	newer, err := a.Put(record(t, "rec-1", "New"))
	require.NoError(t, err)

	require.NoError(t, a.Delete(older))

	got, err := a.Lookup("rec-1")
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestArchive_DeleteRepointsIndex(t *testing.T) {
	a := newArchive(t)
	first, err := a.Put(record(t, "rec-1", "Old"))
	require.NoError(t, err)
	other, err := a.Put(record(t, "rec-2", "Other"))
	require.NoError(t, err)
	indexed, err := a.Put(record(t, "rec-1", "New"))
	require.NoError(t, err)

	got, err := a.Lookup("rec-1")
	require.NoError(t, err)
	require.Equal(t, indexed, got)

	require.NoError(t, a.Delete(indexed))

	got, err = a.Lookup("rec-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	require.NoError(t, a.Delete(first))

	_, err = a.Lookup("rec-1")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = a.Lookup("rec-2")
	require.NoError(t, err)
	assert.Equal(t, other, got)
}

func TestArchive_Update(t *testing.T) {
	a := newArchive(t)
	id, err := a.Put(record(t, "rec-1", "First"))
	require.NoError(t, err)

	updated := record(t, "rec-2", "Renamed")
	require.NoError(t, a.Update(id, updated))

	got, err := a.Get(id)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = a.Lookup("rec-1")
	assert.ErrorIs(t, err, ErrNotFound)
	found, err := a.Lookup("rec-2")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	assert.ErrorIs(t, a.Update(id, []byte("bad")), iso2709.ErrFormat)
}

func TestArchive_List(t *testing.T) {
	a := newArchive(t)

	var want []ksuid.KSUID
	for i := 0; i < 5; i++ {
		id, err := a.Put(record(t, "", "Untitled"))
		require.NoError(t, err)
		want = append(want, id)
	}
	ksuid.Sort(want)

	testCases := []struct {
		name  string
		after ksuid.KSUID
		limit int
		want  []ksuid.KSUID
	}{
		{"all", ksuid.Nil, 0, want},
		{"limited", ksuid.Nil, 2, want[:2]},
		{"after", want[1], 0, want[2:]},
		{"after with limit", want[1], 2, want[2:4]},
		{"after last", want[4], 0, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.List(tc.after, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestArchive_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	data := record(t, "rec-1", "Durable")

	a, err := Open(dir, Options{Sync: true})
	require.NoError(t, err)
	id, err := a.Put(data)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = Open(dir, Options{})
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Get(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("rec0"), prefixEnd([]byte("rec/")))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff}))
}
