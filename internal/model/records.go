package model

import (
	"strings"
	"time"
)

// Row is one delimited-file record keyed by column name. Absent keys read as "".
type Row map[string]string

// Company is an organisation exported from Brightpearl.
type Company struct {
	ID                 string
	Name               string
	TaxNumber          string
	Email              string
	Phone              string
	Website            string
	IsPrimaryContact   string
	PriceListID        string
	NominalCode        string
	TaxCodeID          string
	CreditTermDays     string
	CurrencyID         string
	DiscountPercentage string
	CreditTermTypeID   string
}

// Contact is a person belonging to at most one company.
type Contact struct {
	ID               string
	IsPrimaryContact string
	Name             string
	Email            string
	Phone            string
	TagList          string
	CompanyID        string
	Wholesale        string
	AccountCode      string
}

// Address is a postal address owned by one contact. An address may be
// billing and delivery at the same time.
type Address struct {
	ContactID  string
	AddressID  string
	IsBilling  bool
	IsDelivery bool
	IsDefault  bool
	Line1      string
	Line2      string
	Line3      string
	Line4      string
	City       string
	Postcode   string
	Country    string
}

// ProvinceRaw is the free-text province field: line 4 when set, otherwise line 3.
func (a Address) ProvinceRaw() string {
	if strings.TrimSpace(a.Line4) != "" {
		return a.Line4
	}
	return a.Line3
}

// CacheEntry is one resolved address in the normalization cache.
type CacheEntry struct {
	AddressID    string
	Line1        string
	Line2        string
	Postcode     string
	Country      string
	City         string
	ProvinceCode string
	LastUpdated  time.Time
}

// ParseFlag reads the "TRUE"/"FALSE" strings of the address export.
func ParseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "TRUE")
}

// FormatFlag is the inverse of ParseFlag.
func FormatFlag(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// CompanyFromRow maps a companies.csv record.
func CompanyFromRow(r Row) Company {
	return Company{
		ID:                 r["companyId"],
		Name:               r["companyName"],
		TaxNumber:          r["taxNumber"],
		Email:              r["email"],
		Phone:              r["phone"],
		Website:            r["website"],
		IsPrimaryContact:   r["isPrimaryContact"],
		PriceListID:        r["priceListId"],
		NominalCode:        r["nominalCode"],
		TaxCodeID:          r["taxCodeId"],
		CreditTermDays:     r["creditTermDays"],
		CurrencyID:         r["currencyId"],
		DiscountPercentage: r["discountPercentage"],
		CreditTermTypeID:   r["creditTermTypeId"],
	}
}

// Row maps the company back to its companies.csv columns.
func (c Company) Row() Row {
	return Row{
		"companyId":          c.ID,
		"companyName":        c.Name,
		"taxNumber":          c.TaxNumber,
		"email":              c.Email,
		"phone":              c.Phone,
		"website":            c.Website,
		"isPrimaryContact":   c.IsPrimaryContact,
		"priceListId":        c.PriceListID,
		"nominalCode":        c.NominalCode,
		"taxCodeId":          c.TaxCodeID,
		"creditTermDays":     c.CreditTermDays,
		"currencyId":         c.CurrencyID,
		"discountPercentage": c.DiscountPercentage,
		"creditTermTypeId":   c.CreditTermTypeID,
	}
}

// ContactFromRow maps a contacts.csv record.
func ContactFromRow(r Row) Contact {
	return Contact{
		ID:               r["contactId"],
		IsPrimaryContact: r["isPrimaryContact"],
		Name:             r["name"],
		Email:            r["email"],
		Phone:            r["phone"],
		TagList:          r["tagList"],
		CompanyID:        r["companyId"],
		Wholesale:        r["Wholesale"],
		AccountCode:      r["Joor Account Code"],
	}
}

// Row maps the contact back to its contacts.csv columns.
func (c Contact) Row() Row {
	return Row{
		"contactId":         c.ID,
		"isPrimaryContact":  c.IsPrimaryContact,
		"name":              c.Name,
		"email":             c.Email,
		"phone":             c.Phone,
		"tagList":           c.TagList,
		"companyId":         c.CompanyID,
		"Wholesale":         c.Wholesale,
		"Joor Account Code": c.AccountCode,
	}
}

// AddressFromRow maps an addresses.csv record.
func AddressFromRow(r Row) Address {
	return Address{
		ContactID:  r["contactId"],
		AddressID:  r["addressId"],
		IsBilling:  ParseFlag(r["isBilling"]),
		IsDelivery: ParseFlag(r["isDelivery"]),
		IsDefault:  ParseFlag(r["isDefault"]),
		Line1:      r["addressLine1"],
		Line2:      r["addressLine2"],
		Line3:      r["addressLine3"],
		Line4:      r["addressLine4"],
		City:       r["city"],
		Postcode:   r["postcode"],
		Country:    r["country"],
	}
}

// Row maps the address back to its addresses.csv columns.
func (a Address) Row() Row {
	return Row{
		"contactId":    a.ContactID,
		"addressId":    a.AddressID,
		"isBilling":    FormatFlag(a.IsBilling),
		"isDelivery":   FormatFlag(a.IsDelivery),
		"isDefault":    FormatFlag(a.IsDefault),
		"addressLine1": a.Line1,
		"addressLine2": a.Line2,
		"addressLine3": a.Line3,
		"addressLine4": a.Line4,
		"city":         a.City,
		"postcode":     a.Postcode,
		"country":      a.Country,
	}
}

// CacheEntryFromRow maps a normalized_addresses.csv record. An unparseable
// timestamp leaves LastUpdated zero.
func CacheEntryFromRow(r Row) CacheEntry {
	e := CacheEntry{
		AddressID:    r["address_id"],
		Line1:        r["address_line_1"],
		Line2:        r["address_line_2"],
		Postcode:     r["postcode"],
		Country:      r["country"],
		City:         r["normalized_city"],
		ProvinceCode: r["normalized_province_code"],
	}
	if ts := strings.TrimSpace(r["last_updated"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			e.LastUpdated = t
		}
	}
	return e
}

// Row maps the entry back to its normalized_addresses.csv columns.
func (e CacheEntry) Row() Row {
	ts := ""
	if !e.LastUpdated.IsZero() {
		ts = e.LastUpdated.UTC().Format(time.RFC3339)
	}
	return Row{
		"address_id":               e.AddressID,
		"address_line_1":           e.Line1,
		"address_line_2":           e.Line2,
		"postcode":                 e.Postcode,
		"country":                  e.Country,
		"normalized_city":          e.City,
		"normalized_province_code": e.ProvinceCode,
		"last_updated":             ts,
	}
}
