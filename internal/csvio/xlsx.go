package csvio

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/bpmigrate/internal/model"
)

// WriteWorkbook writes the same layout as WriteTable into a single-sheet
// workbook, for reviewers who open the conversion in a spreadsheet.
func WriteWorkbook(path, sheet string, columns []string, rows []model.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "csvio: create directory for %s", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return eris.Wrapf(err, "csvio: name sheet %s", sheet)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return eris.Wrap(err, "csvio: write workbook header")
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrapf(err, "csvio: cell for row %d", i+1)
		}
		values := make([]interface{}, len(columns))
		for j, col := range columns {
			values[j] = row[col]
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return eris.Wrapf(err, "csvio: write workbook row %d", i+1)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "csvio: save %s", path)
	}
	return nil
}
