package convert

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/derive"
	"github.com/bpmigrate/internal/index"
	"github.com/bpmigrate/internal/model"
	"github.com/bpmigrate/internal/normalizer"
)

// Fixed values of the company import.
const (
	commandNew      = "NEW"
	commandMerge    = "MERGE"
	defaultLocale   = "es"
	customerState   = "disabled"
	flagTrue        = "TRUE"
	flagFalse       = "FALSE"
	mainContactNone = ""
)

// Normalizer resolves city and province codes for a list of addresses.
type Normalizer interface {
	NormalizeBatch(ctx context.Context, addrs []model.Address, kind normalizer.Kind) ([]normalizer.Result, error)
}

// Input holds the three exported record sets.
type Input struct {
	Companies []model.Company
	Contacts  []model.Contact
	Addresses []model.Address
}

// Output is the converted data plus counters.
type Output struct {
	Locations []model.LocationRecord
	Customers []model.CustomerRecord
	Stats     Stats
}

type Stats struct {
	Companies               int
	CompaniesWithoutRows    int
	Contacts                int
	ContactsWithoutDelivery int
	Rows                    int
	Customers               int
	ShippingNormalized      int
	BillingNormalized       int
}

// pending is an address waiting for normalization and the row it patches.
type pending struct {
	row  int
	addr model.Address
}

// Builder turns the exported records into import rows.
type Builder struct {
	Names   derive.NamePolicy
	Billing BillingPolicy
	// Cache supplies already-normalized countries for phone formatting. May be nil.
	Cache      *cache.Cache
	Normalizer Normalizer
	Log        *zap.Logger
}

// Build fans out companies into one location row per contact and unique
// delivery address, then normalizes the referenced addresses in two batches
// and patches the results into the rows.
func (b *Builder) Build(ctx context.Context, in Input) (Output, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}

	contactsByCompany := index.GroupBy(in.Contacts, func(c model.Contact) string { return c.CompanyID })
	addressesByContact := index.GroupBy(in.Addresses, func(a model.Address) string { return a.ContactID })

	var out Output
	var shipping, billing []pending
	emails := map[string]bool{}

	for _, company := range in.Companies {
		out.Stats.Companies++
		contacts := contactsByCompany[company.ID]
		name := companyName(company, contacts)
		before := len(out.Locations)

		for _, contact := range contacts {
			out.Stats.Contacts++
			addrs := addressesByContact[contact.ID]
			deliveries := uniqueDeliveries(addrs)
			if len(deliveries) == 0 {
				out.Stats.ContactsWithoutDelivery++
				log.Debug("contact has no delivery address, skipped",
					zap.String("company_id", company.ID), zap.String("contact_id", contact.ID))
				continue
			}

			billAddr, hasBilling := b.Billing.pick(addrs)
			governing := b.governingCountry(addrs, billAddr, hasBilling)
			first, last := derive.SplitName(b.Names, contact.Name)
			role := model.RoleOrderingOnly
			if contact.ID == company.ID {
				role = model.RoleLocationAdmin
			}

			for _, ship := range deliveries {
				rec := model.LocationRecord{
					CompanyName:     name,
					Command:         commandNew,
					MainContactID:   mainContactNone,
					LocationName:    ship.Line1,
					LocationCommand: commandNew,
					LocationPhone:   formatPhone(contact.Phone, governing),
					Locale:          defaultLocale,
					TaxID:           company.TaxNumber,
					AllowShipToAny:  flagTrue,
					CheckoutToDraft: flagFalse,
					PayNowOnly:      flagFalse,
					Shipping:        b.party(log, first, last, name, contact.Phone, ship, ""),
					CatalogsCommand: commandNew,
					CustomerEmail:   contact.Email,
					CustomerCommand: commandMerge,
					CustomerFirst:   first,
					CustomerLast:    last,
					LocationRole:    role,
					ContactID:       contact.ID,
					Wholesale:       contact.Wholesale,
				}
				if hasBilling {
					rec.Billing = b.party(log, first, last, name, contact.Phone, billAddr, governing)
					billing = append(billing, pending{row: len(out.Locations), addr: billAddr})
				}
				shipping = append(shipping, pending{row: len(out.Locations), addr: ship})
				out.Locations = append(out.Locations, rec)
			}

			email := strings.TrimSpace(contact.Email)
			if email != "" && !emails[strings.ToLower(email)] {
				emails[strings.ToLower(email)] = true
				out.Customers = append(out.Customers, model.CustomerRecord{
					Email:         email,
					Command:       commandMerge,
					FirstName:     first,
					LastName:      last,
					State:         customerState,
					VerifiedEmail: flagTrue,
					TaxExempt:     flagFalse,
				})
			}
		}

		if len(out.Locations) == before {
			out.Stats.CompaniesWithoutRows++
		}
	}

	if err := b.patch(ctx, out.Locations, shipping, normalizer.Shipping); err != nil {
		return Output{}, err
	}
	if err := b.patch(ctx, out.Locations, billing, normalizer.Billing); err != nil {
		return Output{}, err
	}

	out.Stats.Rows = len(out.Locations)
	out.Stats.Customers = len(out.Customers)
	out.Stats.ShippingNormalized = len(shipping)
	out.Stats.BillingNormalized = len(billing)
	return out, nil
}

// patch normalizes the pending addresses and writes city, province and
// country into the shipping or billing block of their rows.
func (b *Builder) patch(ctx context.Context, rows []model.LocationRecord, list []pending, kind normalizer.Kind) error {
	if len(list) == 0 {
		return nil
	}
	addrs := make([]model.Address, len(list))
	for i, p := range list {
		addrs[i] = p.addr
	}

	results, err := b.normalize(ctx, addrs, kind)
	if err != nil {
		return eris.Wrapf(err, "convert: normalize %s addresses", kind)
	}
	if len(results) != len(list) {
		return eris.Errorf("convert: %d %s results for %d addresses", len(results), kind, len(list))
	}

	for i, p := range list {
		party := &rows[p.row].Shipping
		if kind == normalizer.Billing {
			party = &rows[p.row].Billing
		}
		r := results[i]
		party.City = r.City
		party.ProvinceCode = r.ProvinceCode
		if r.Country != "" {
			party.CountryCode = r.Country
		}
	}
	return nil
}

func (b *Builder) normalize(ctx context.Context, addrs []model.Address, kind normalizer.Kind) ([]normalizer.Result, error) {
	if b.Normalizer == nil {
		results := make([]normalizer.Result, len(addrs))
		for i, a := range addrs {
			results[i] = normalizer.Identity(a)
		}
		return results, nil
	}
	return b.Normalizer.NormalizeBatch(ctx, addrs, kind)
}

// party fills the name, phone and raw address fields of one side of a row.
// City and province are provisional until patch runs. An unrecognised
// country is dropped in favour of fallback.
func (b *Builder) party(log *zap.Logger, first, last, recipient, phone string, a model.Address, fallback string) model.PartyFields {
	country := b.countryOf(a)
	if country == "" {
		if raw := strings.TrimSpace(a.Country); raw != "" {
			log.Warn("unrecognised country dropped",
				zap.String("address_id", a.AddressID), zap.String("country", raw), zap.String("fallback", fallback))
		}
		country = fallback
	}
	return model.PartyFields{
		FirstName:    first,
		LastName:     last,
		Recipient:    recipient,
		Phone:        formatPhone(phone, country),
		Address1:     a.Line1,
		Address2:     a.Line2,
		Zip:          derive.PostalCode(a.Postcode, a.Country),
		City:         a.City,
		ProvinceCode: a.ProvinceRaw(),
		CountryCode:  country,
	}
}

// countryOf prefers the country stored in the normalization cache.
func (b *Builder) countryOf(a model.Address) string {
	if b.Cache != nil && a.AddressID != "" {
		if e, ok := b.Cache.Get(a.AddressID); ok {
			if code := derive.CountryCode(e.Country); code != "" {
				return code
			}
		}
	}
	return derive.CountryCode(a.Country)
}

// governingCountry is the billing address country, else the first
// recognised country among the contact's addresses.
func (b *Builder) governingCountry(addrs []model.Address, billAddr model.Address, hasBilling bool) string {
	if hasBilling {
		if code := b.countryOf(billAddr); code != "" {
			return code
		}
	}
	for _, a := range addrs {
		if code := b.countryOf(a); code != "" {
			return code
		}
	}
	return ""
}

func companyName(company model.Company, contacts []model.Contact) string {
	if strings.TrimSpace(company.Name) != "" {
		return company.Name
	}
	for _, c := range contacts {
		if c.ID == company.ID {
			return c.Name
		}
	}
	return company.Name
}

// uniqueDeliveries keeps the first delivery address per dedup key of line 1.
// Addresses whose line 1 has no letters or digits are dropped.
func uniqueDeliveries(addrs []model.Address) []model.Address {
	seen := map[string]bool{}
	var out []model.Address
	for _, a := range addrs {
		if !a.IsDelivery {
			continue
		}
		key := derive.DedupKey(a.Line1)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// formatPhone returns the E.164 form when it can be derived, else the input.
func formatPhone(phone, country string) string {
	if formatted, ok := derive.Phone(phone, country); ok {
		return formatted
	}
	return phone
}
