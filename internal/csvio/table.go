// Package csvio reads and writes the header-keyed CSV tables exchanged
// between the export, conversion and cache steps.
package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bpmigrate/internal/model"
)

const utf8BOM = "\ufeff"

// EnsureTable creates path, and its directory, holding only the header row
// when the file does not exist yet. An existing file is left untouched.
func EnsureTable(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return eris.Wrapf(err, "csvio: stat %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "csvio: create directory for %s", path)
	}
	return WriteTable(path, header, nil)
}

// ReadTable loads path as a sequence of rows keyed by the file's header.
// A missing file is first created with the given header, so it yields no
// rows. Values are never coerced; absent trailing fields read as "".
func ReadTable(path string, header []string) ([]model.Row, error) {
	if err := EnsureTable(path, header); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: open %s", path)
	}
	defer file.Close()

	return decode(file, path)
}

func decode(r io.Reader, name string) ([]model.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: read header of %s", name)
	}
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], utf8BOM)
	}

	var rows []model.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csvio: read record %d of %s", len(rows)+1, name)
		}

		row := make(model.Row, len(head))
		for i, col := range head {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteTable overwrites path with the header followed by every row laid out
// in column order. Keys missing from a row are written as "", keys outside
// columns are dropped.
func WriteTable(path string, columns []string, rows []model.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "csvio: create directory for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csvio: create %s", path)
	}

	if err := encode(file, columns, rows); err != nil {
		file.Close()
		return eris.Wrapf(err, "csvio: write %s", path)
	}
	if err := file.Close(); err != nil {
		return eris.Wrapf(err, "csvio: close %s", path)
	}
	return nil
}

func encode(w io.Writer, columns []string, rows []model.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
