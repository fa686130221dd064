package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmigrate/internal/csvio"
	"github.com/bpmigrate/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(id, city, province, country string) model.CacheEntry {
	return model.CacheEntry{AddressID: id, Line1: "Line " + id, City: city, ProvinceCode: province, Country: country}
}

func TestCachePutKeepsInsertionOrder(t *testing.T) {
	c := New()
	c.Put(entry("b", "Bilbao", "BI", "ES"))
	c.Put(entry("a", "Avila", "AV", "ES"))
	c.Put(entry("b", "Bilbo", "BI", "ES"))
	c.Put(entry("  ", "Nowhere", "", ""))

	require.Equal(t, 2, c.Len())
	ids := []string{}
	for _, e := range c.Entries() {
		ids = append(ids, e.AddressID)
	}
	assert.Equal(t, []string{"b", "a"}, ids)

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Bilbo", got.City)
}

func TestCSVStoreLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	c, err := NewCSVStore(path).Load(context.Background())

	require.NoError(t, err)
	assert.Zero(t, c.Len())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCSVStoreSkipsEntriesWithoutID(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, csvio.WriteTable(path, model.CacheColumns, []model.Row{
		{"address_id": "", "normalized_city": "Ghost"},
		{"address_id": "7", "normalized_city": "Madrid", "normalized_province_code": "M"},
	}))

	c, err := NewCSVStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	got, _ := c.Get("7")
	assert.Equal(t, "Madrid", got.City)
}

func TestCSVStoreSaveWritesBatchFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store := NewCSVStore(path)
	store.Now = func() time.Time { return fixedNow }

	c := New()
	c.Put(entry("old", "Lyon", "", "FR"))
	c.Put(entry("new", "Madrid", "M", "ESP"))

	require.NoError(t, store.Save(context.Background(), c, []string{"new", "missing"}))

	rows, err := csvio.ReadTable(path, model.CacheColumns)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0]["address_id"])
	assert.Equal(t, "ES", rows[0]["country"], "country converted to alpha-2")
	assert.Equal(t, "old", rows[1]["address_id"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), rows[0]["last_updated"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), rows[1]["last_updated"])
}

func TestCSVStoreRoundTripIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	store := NewCSVStore(path)
	store.Now = func() time.Time { return fixedNow }
	ctx := context.Background()

	c := New()
	c.Put(entry("1", "Madrid", "M", "ES"))
	c.Put(entry("2", "Austin", "TX", "US"))
	require.NoError(t, store.Save(ctx, c, nil))

	first, err := store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, first, nil))
	second, err := store.Load(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Entries(), second.Entries()); diff != "" {
		t.Errorf("reload changed entries (-first +second):\n%s", diff)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "cache.db")

	store, err := OpenSQL(ctx, BackendSQLite, dsn)
	require.NoError(t, err)
	defer store.Close()
	store.Now = func() time.Time { return fixedNow }

	c := New()
	c.Put(entry("1", "Madrid", "M", "ESP"))
	c.Put(entry("2", "Austin", "TX", "US"))
	require.NoError(t, store.Save(ctx, c, []string{"1"}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len(), "only the batch is upserted")
	got, ok := loaded.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Madrid", got.City)
	assert.Equal(t, "ES", got.Country)
	assert.True(t, fixedNow.Equal(got.LastUpdated))

	c.Put(entry("1", "Madrid", "MD", "ES"))
	require.NoError(t, store.Save(ctx, c, []string{"1", "2"}))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	got, _ = loaded.Get("1")
	assert.Equal(t, "MD", got.ProvinceCode)
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "", "", filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, s)

	_, err = Open(ctx, "redis", "", "")
	assert.Error(t, err)

	_, err = Open(ctx, BackendSQLite, "", "")
	assert.Error(t, err, "sql backends need a dsn")
}
