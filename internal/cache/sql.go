package cache

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bpmigrate/internal/model"
)

// Backend names accepted by Open.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type dialect struct {
	driver string
	upsert string
}

var dialects = map[string]dialect{
	BackendPostgres: {
		driver: "postgres",
		upsert: `INSERT INTO normalized_addresses
			(address_id, address_line_1, address_line_2, postcode, country, normalized_city, normalized_province_code, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (address_id) DO UPDATE SET
				address_line_1 = EXCLUDED.address_line_1,
				address_line_2 = EXCLUDED.address_line_2,
				postcode = EXCLUDED.postcode,
				country = EXCLUDED.country,
				normalized_city = EXCLUDED.normalized_city,
				normalized_province_code = EXCLUDED.normalized_province_code,
				last_updated = EXCLUDED.last_updated`,
	},
	BackendSQLite: {
		driver: "sqlite",
		upsert: `INSERT INTO normalized_addresses
			(address_id, address_line_1, address_line_2, postcode, country, normalized_city, normalized_province_code, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (address_id) DO UPDATE SET
				address_line_1 = excluded.address_line_1,
				address_line_2 = excluded.address_line_2,
				postcode = excluded.postcode,
				country = excluded.country,
				normalized_city = excluded.normalized_city,
				normalized_province_code = excluded.normalized_province_code,
				last_updated = excluded.last_updated`,
	},
}

const schema = `CREATE TABLE IF NOT EXISTS normalized_addresses (
	address_id TEXT PRIMARY KEY,
	address_line_1 TEXT NOT NULL DEFAULT '',
	address_line_2 TEXT NOT NULL DEFAULT '',
	postcode TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	normalized_city TEXT NOT NULL DEFAULT '',
	normalized_province_code TEXT NOT NULL DEFAULT '',
	last_updated TEXT NOT NULL DEFAULT ''
)`

// SQLStore keeps one row per address and upserts only the entries of the
// current batch on save, so concurrent runs do not overwrite each other.
type SQLStore struct {
	DB  *sql.DB
	Now func() time.Time

	upsert string
}

// OpenSQL connects to a postgres or sqlite database and creates the cache
// table when missing.
func OpenSQL(ctx context.Context, backend, dsn string) (*SQLStore, error) {
	d, ok := dialects[backend]
	if !ok {
		return nil, eris.Errorf("cache: unsupported sql backend %q", backend)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, eris.Errorf("cache: %s backend needs a dsn", backend)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: ping database")
	}

	if backend == BackendSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: create table")
	}
	return &SQLStore{DB: db, Now: time.Now, upsert: d.upsert}, nil
}

func (s *SQLStore) Load(ctx context.Context) (*Cache, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT address_id, address_line_1, address_line_2, postcode, country,
		normalized_city, normalized_province_code, last_updated
		FROM normalized_addresses ORDER BY last_updated, address_id`)
	if err != nil {
		return nil, eris.Wrap(err, "cache: query entries")
	}
	defer rows.Close()

	c := New()
	for rows.Next() {
		r := model.Row{}
		var id, line1, line2, postcode, country, city, province, ts string
		if err := rows.Scan(&id, &line1, &line2, &postcode, &country, &city, &province, &ts); err != nil {
			return nil, eris.Wrap(err, "cache: scan entry")
		}
		r["address_id"] = id
		r["address_line_1"] = line1
		r["address_line_2"] = line2
		r["postcode"] = postcode
		r["country"] = country
		r["normalized_city"] = city
		r["normalized_province_code"] = province
		r["last_updated"] = ts
		c.Put(model.CacheEntryFromRow(r))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "cache: iterate entries")
	}
	return c, nil
}

// Save upserts the batch entries in one transaction. Entries outside the
// batch are already persisted and left alone.
func (s *SQLStore) Save(ctx context.Context, c *Cache, batch []string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	stamped := now().UTC()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "cache: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.upsert)
	if err != nil {
		return eris.Wrap(err, "cache: prepare upsert")
	}
	defer stmt.Close()

	for _, id := range batch {
		e, ok := c.Get(id)
		if !ok {
			continue
		}
		e = stamp(e, stamped)
		r := e.Row()
		if _, err := stmt.ExecContext(ctx, r["address_id"], r["address_line_1"], r["address_line_2"],
			r["postcode"], r["country"], r["normalized_city"], r["normalized_province_code"], r["last_updated"]); err != nil {
			return eris.Wrapf(err, "cache: upsert %s", id)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "cache: commit")
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

// Open returns the store selected by backend. csvPath is used by the csv
// backend and dsn by the sql backends.
func Open(ctx context.Context, backend, dsn, csvPath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCSV:
		return NewCSVStore(csvPath), nil
	case BackendPostgres, BackendSQLite:
		return OpenSQL(ctx, strings.ToLower(strings.TrimSpace(backend)), dsn)
	}
	return nil, eris.Errorf("cache: unknown backend %q", backend)
}
