package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bpmigrate/internal/csvio"
	"github.com/bpmigrate/internal/model"
)

// FileName is the cache file written next to the converted output.
const FileName = "normalized_addresses.csv"

// CSVStore keeps the whole cache in one CSV file, rewritten on every save.
type CSVStore struct {
	Path string
	Now  func() time.Time
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path, Now: time.Now}
}

func (s *CSVStore) Load(ctx context.Context) (*Cache, error) {
	c := New()
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}

	rows, err := csvio.ReadTable(s.Path, model.CacheColumns)
	if err != nil {
		return nil, eris.Wrap(err, "cache: load csv")
	}
	for _, row := range rows {
		c.Put(model.CacheEntryFromRow(row))
	}
	return c, nil
}

func (s *CSVStore) Save(ctx context.Context, c *Cache, batch []string) error {
	entries := c.snapshot(batch, s.now())
	rows := make([]model.Row, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	if err := csvio.WriteTable(s.Path, model.CacheColumns, rows); err != nil {
		return eris.Wrap(err, "cache: save csv")
	}
	return nil
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
