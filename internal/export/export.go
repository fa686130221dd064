// Package export pulls contacts, companies, addresses and orders out of
// Brightpearl into the CSV files the converter reads.
package export

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/brightpearl"
	"github.com/bpmigrate/internal/convert"
	"github.com/bpmigrate/internal/csvio"
	"github.com/bpmigrate/internal/logging"
	"github.com/bpmigrate/internal/model"
)

const (
	DefaultTag        = "B2B"
	DefaultDepartment = 11
	OrdersFile        = "orders.csv"

	// progressEvery is how many records pass between progress log lines.
	progressEvery = 50
)

// Source is the part of the Brightpearl client the exports use.
type Source interface {
	TagID(ctx context.Context, name string) (string, error)
	ContactIDsWithTag(ctx context.Context, tagID string) ([]string, error)
	Contact(ctx context.Context, id string) (brightpearl.Contact, error)
	PostalAddress(ctx context.Context, id string) (brightpearl.PostalAddress, error)
	OrderIDs(ctx context.Context, departmentID int) ([]string, error)
	Order(ctx context.Context, id string) (brightpearl.Order, error)
}

// Exporter writes Brightpearl records to CSV.
type Exporter struct {
	src Source
	log *zap.Logger
}

func NewExporter(src Source, log *zap.Logger) *Exporter {
	return &Exporter{src: src, log: logging.OrNop(log)}
}

type ContactOptions struct {
	Tag string
	// Limit caps the number of contacts processed. Zero means all.
	Limit int
	Dir   string
}

type ContactStats struct {
	Listed    int
	Exported  int
	Skipped   int
	Companies int
	Addresses int
}

// Contacts exports every contact carrying the tag, its company and its
// postal addresses to companies.csv, contacts.csv and addresses.csv.
// A contact that cannot be fetched is logged and skipped.
func (e *Exporter) Contacts(ctx context.Context, opts ContactOptions) (ContactStats, error) {
	defer logging.Timing(e.log, "export contacts")()
	var stats ContactStats

	tag := opts.Tag
	if tag == "" {
		tag = DefaultTag
	}
	tagID, err := e.src.TagID(ctx, tag)
	if err != nil {
		return stats, eris.Wrapf(err, "export: resolve tag %q", tag)
	}
	ids, err := e.src.ContactIDsWithTag(ctx, tagID)
	if err != nil {
		return stats, eris.Wrapf(err, "export: list contacts tagged %q", tag)
	}
	stats.Listed = len(ids)
	ids = limit(ids, opts.Limit)
	e.log.Info("contacts listed",
		zap.String("tag", tag), zap.Int("found", stats.Listed), zap.Int("processing", len(ids)))

	var contacts, companies, addresses []model.Row
	seenCompanies := map[string]bool{}

	for i, id := range ids {
		if i > 0 && i%progressEvery == 0 {
			e.log.Info("export progress", zap.Int("done", i), zap.Int("total", len(ids)))
		}

		c, err := e.src.Contact(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Skipped++
			e.log.Warn("skipping contact", zap.String("contact_id", id), zap.Error(err))
			continue
		}

		company, hasCompany := companyOf(c)
		contact := contactOf(c)
		if contact.ID == "" {
			contact.ID = id
		}
		if hasCompany {
			contact.CompanyID = company.ID
			if !seenCompanies[company.ID] {
				seenCompanies[company.ID] = true
				companies = append(companies, company.Row())
			}
		}
		contacts = append(contacts, contact.Row())
		stats.Exported++

		for _, a := range e.addressesOf(ctx, contact.ID, c) {
			addresses = append(addresses, a.Row())
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
	}
	stats.Companies = len(companies)
	stats.Addresses = len(addresses)

	files := []struct {
		name    string
		columns []string
		rows    []model.Row
	}{
		{convert.CompaniesFile, model.CompanyColumns, companies},
		{convert.ContactsFile, model.ContactColumns, contacts},
		{convert.AddressesFile, model.AddressColumns, addresses},
	}
	for _, f := range files {
		if err := csvio.WriteTable(filepath.Join(opts.Dir, f.name), f.columns, f.rows); err != nil {
			return stats, eris.Wrapf(err, "export: write %s", f.name)
		}
	}

	e.log.Info("contacts exported",
		zap.Int("contacts", stats.Exported), zap.Int("skipped", stats.Skipped),
		zap.Int("companies", stats.Companies), zap.Int("addresses", stats.Addresses),
		zap.String("dir", opts.Dir))
	return stats, nil
}

func contactOf(c brightpearl.Contact) model.Contact {
	return model.Contact{
		ID:               string(c.ContactID),
		IsPrimaryContact: string(c.IsPrimaryContact),
		Name:             c.Name(),
		Email:            c.Email(),
		Phone:            c.Phone(),
		Wholesale:        string(c.CustomFields["PCF_CUSTWHOL"]),
		AccountCode:      string(c.CustomFields["PCF_JOORACCO"]),
	}
}

// companyOf reads the organisation block of a contact. Contacts without an
// organisation id have no company.
func companyOf(c brightpearl.Contact) (model.Company, bool) {
	if !c.HasOrganisation() {
		return model.Company{}, false
	}
	f := c.FinancialDetails
	return model.Company{
		ID:                 string(c.Organisation.OrganisationID),
		Name:               string(c.Organisation.Name),
		TaxNumber:          string(f.TaxNumber),
		Email:              c.Email(),
		Phone:              c.Phone(),
		Website:            c.Website(),
		IsPrimaryContact:   string(c.IsPrimaryContact),
		PriceListID:        string(f.PriceListID),
		NominalCode:        string(f.NominalCode),
		TaxCodeID:          string(f.TaxCodeID),
		CreditTermDays:     string(f.CreditTermDays),
		CurrencyID:         string(f.CurrencyID),
		DiscountPercentage: string(f.DiscountPercentage),
		CreditTermTypeID:   string(f.CreditTermTypeID),
	}, true
}

// addressTypes orders the postAddressIds keys.
var addressTypes = []string{"BIL", "DEL", "DEF"}

// addressesOf fetches each distinct postal address of the contact once and
// flags it with every type that points at it.
func (e *Exporter) addressesOf(ctx context.Context, contactID string, c brightpearl.Contact) []model.Address {
	types := map[string][]string{}
	var order []string
	keys := make([]string, 0, len(c.PostAddressIDs))
	for k := range c.PostAddressIDs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := typeRank(keys[i]), typeRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		id := string(c.PostAddressIDs[k])
		if id == "" || id == "0" {
			continue
		}
		if _, ok := types[id]; !ok {
			order = append(order, id)
		}
		types[id] = append(types[id], k)
	}

	var out []model.Address
	for _, id := range order {
		pa, err := e.src.PostalAddress(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return out
			}
			e.log.Warn("skipping address",
				zap.String("contact_id", contactID), zap.String("address_id", id), zap.Error(err))
			continue
		}
		a := model.Address{
			ContactID: contactID,
			AddressID: id,
			Line1:     string(pa.AddressLine1),
			Line2:     string(pa.AddressLine2),
			Line3:     string(pa.AddressLine3),
			Line4:     string(pa.AddressLine4),
			City:      string(pa.AddressLine3),
			Postcode:  string(pa.PostalCode),
			Country:   string(pa.CountryIsoCode),
		}
		for _, t := range types[id] {
			switch t {
			case "BIL":
				a.IsBilling = true
			case "DEL":
				a.IsDelivery = true
			case "DEF":
				a.IsDefault = true
			}
		}
		out = append(out, a)
	}
	return out
}

func typeRank(t string) int {
	for i, at := range addressTypes {
		if t == at {
			return i
		}
	}
	return len(addressTypes)
}

func limit(ids []string, n int) []string {
	if n > 0 && len(ids) > n {
		return ids[:n]
	}
	return ids
}
