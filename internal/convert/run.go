// Package convert turns the Brightpearl exports into the company and
// customer bulk-import files.
package convert

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/csvio"
	"github.com/bpmigrate/internal/logging"
	"github.com/bpmigrate/internal/model"
)

// File names inside the export and converted directories.
const (
	CompaniesFile = "companies.csv"
	ContactsFile  = "contacts.csv"
	AddressesFile = "addresses.csv"
	CustomersFile = "customers.csv"
)

type Options struct {
	ExportDir    string
	ConvertedDir string
	// XLSX also writes workbook copies of the output files.
	XLSX bool
}

// Run reads the three exports, builds the rows and writes the output files.
func Run(ctx context.Context, opts Options, b *Builder, log *zap.Logger) (Stats, error) {
	log = logging.OrNop(log)
	defer logging.Timing(log, "convert")()

	in, err := ReadInput(opts.ExportDir)
	if err != nil {
		return Stats{}, err
	}
	log.Info("loaded exports",
		zap.Int("companies", len(in.Companies)), zap.Int("contacts", len(in.Contacts)), zap.Int("addresses", len(in.Addresses)))

	out, err := b.Build(ctx, in)
	if err != nil {
		return Stats{}, err
	}

	if err := WriteOutput(opts, out); err != nil {
		return Stats{}, err
	}
	log.Info("conversion finished",
		zap.Int("rows", out.Stats.Rows),
		zap.Int("customers", out.Stats.Customers),
		zap.Int("companies_without_rows", out.Stats.CompaniesWithoutRows),
		zap.Int("contacts_without_delivery", out.Stats.ContactsWithoutDelivery),
		zap.String("output", filepath.Join(opts.ConvertedDir, CompaniesFile)))
	return out.Stats, nil
}

// ReadInput loads the exports, creating header-only files for missing ones.
func ReadInput(dir string) (Input, error) {
	var in Input

	rows, err := csvio.ReadTable(filepath.Join(dir, CompaniesFile), model.CompanyColumns)
	if err != nil {
		return in, eris.Wrap(err, "convert: read companies")
	}
	for _, r := range rows {
		in.Companies = append(in.Companies, model.CompanyFromRow(r))
	}

	if rows, err = csvio.ReadTable(filepath.Join(dir, ContactsFile), model.ContactColumns); err != nil {
		return in, eris.Wrap(err, "convert: read contacts")
	}
	for _, r := range rows {
		in.Contacts = append(in.Contacts, model.ContactFromRow(r))
	}

	if rows, err = csvio.ReadTable(filepath.Join(dir, AddressesFile), model.AddressColumns); err != nil {
		return in, eris.Wrap(err, "convert: read addresses")
	}
	for _, r := range rows {
		in.Addresses = append(in.Addresses, model.AddressFromRow(r))
	}
	return in, nil
}

// WriteOutput writes companies.csv and customers.csv, plus workbooks when asked.
func WriteOutput(opts Options, out Output) error {
	locations := make([]model.Row, len(out.Locations))
	for i, l := range out.Locations {
		locations[i] = l.Row()
	}
	customers := make([]model.Row, len(out.Customers))
	for i, c := range out.Customers {
		customers[i] = c.Row()
	}

	files := []struct {
		name    string
		sheet   string
		columns []string
		rows    []model.Row
	}{
		{CompaniesFile, "Companies", model.LocationColumns, locations},
		{CustomersFile, "Customers", model.CustomerColumns, customers},
	}
	for _, f := range files {
		path := filepath.Join(opts.ConvertedDir, f.name)
		if err := csvio.WriteTable(path, f.columns, f.rows); err != nil {
			return eris.Wrapf(err, "convert: write %s", f.name)
		}
		if opts.XLSX {
			book := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
			if err := csvio.WriteWorkbook(book, f.sheet, f.columns, f.rows); err != nil {
				return eris.Wrapf(err, "convert: write %s", filepath.Base(book))
			}
		}
	}
	return nil
}
