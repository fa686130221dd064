package model

// Location role values of the company import.
const (
	RoleLocationAdmin = "Location admin"
	RoleOrderingOnly  = "Ordering only"
)

// PartyFields is the name/phone/address block repeated for the shipping and
// billing side of a location.
type PartyFields struct {
	FirstName    string
	LastName     string
	Recipient    string
	Phone        string
	Address1     string
	Address2     string
	Zip          string
	City         string
	ProvinceCode string
	CountryCode  string
}

// LocationRecord is one output row: company x contact x unique shipping address.
type LocationRecord struct {
	CompanyName     string
	Command         string
	MainContactID   string
	LocationName    string
	LocationCommand string
	LocationPhone   string
	Locale          string
	TaxID           string
	TaxSetting      string
	TaxExemptions   string
	AllowShipToAny  string
	CheckoutToDraft string
	PaymentTerms    string
	PayNowOnly      string
	Shipping        PartyFields
	Billing         PartyFields
	Catalogs        string
	CatalogsCommand string
	CustomerEmail   string
	CustomerCommand string
	CustomerFirst   string
	CustomerLast    string
	LocationRole    string
	ContactID       string
	Wholesale       string
}

// Row lays the record out under LocationColumns.
func (l LocationRecord) Row() Row {
	return Row{
		ColName:                    l.CompanyName,
		ColCommand:                 l.Command,
		ColMainContactCustomerID:   l.MainContactID,
		ColLocationName:            l.LocationName,
		ColLocationCommand:         l.LocationCommand,
		ColLocationPhone:           l.LocationPhone,
		ColLocationLocale:          l.Locale,
		ColLocationTaxID:           l.TaxID,
		ColLocationTaxSetting:      l.TaxSetting,
		ColLocationTaxExemptions:   l.TaxExemptions,
		ColAllowShippingToAny:      l.AllowShipToAny,
		ColCheckoutToDraft:         l.CheckoutToDraft,
		ColCheckoutPaymentTerms:    l.PaymentTerms,
		ColCheckoutPayNowOnly:      l.PayNowOnly,
		ColShippingFirstName:       l.Shipping.FirstName,
		ColShippingLastName:        l.Shipping.LastName,
		ColShippingRecipient:       l.Shipping.Recipient,
		ColShippingPhone:           l.Shipping.Phone,
		ColShippingAddress1:        l.Shipping.Address1,
		ColShippingAddress2:        l.Shipping.Address2,
		ColShippingZip:             l.Shipping.Zip,
		ColShippingCity:            l.Shipping.City,
		ColShippingProvinceCode:    l.Shipping.ProvinceCode,
		ColShippingCountryCode:     l.Shipping.CountryCode,
		ColBillingFirstName:        l.Billing.FirstName,
		ColBillingLastName:         l.Billing.LastName,
		ColBillingRecipient:        l.Billing.Recipient,
		ColBillingPhone:            l.Billing.Phone,
		ColBillingAddress1:         l.Billing.Address1,
		ColBillingAddress2:         l.Billing.Address2,
		ColBillingZip:              l.Billing.Zip,
		ColBillingCity:             l.Billing.City,
		ColBillingProvinceCode:     l.Billing.ProvinceCode,
		ColBillingCountryCode:      l.Billing.CountryCode,
		ColLocationCatalogs:        l.Catalogs,
		ColLocationCatalogsCommand: l.CatalogsCommand,
		ColCustomerEmail:           l.CustomerEmail,
		ColCustomerCommand:         l.CustomerCommand,
		ColCustomerFirstName:       l.CustomerFirst,
		ColCustomerLastName:        l.CustomerLast,
		ColCustomerLocationRole:    l.LocationRole,
		ColMetaContactID:           l.ContactID,
		ColMetaWholesale:           l.Wholesale,
	}
}

// CustomerRecord is one row of customers.csv, unique by email.
type CustomerRecord struct {
	Email         string
	Command       string
	FirstName     string
	LastName      string
	State         string
	VerifiedEmail string
	TaxExempt     string
}

// Row lays the record out under CustomerColumns.
func (c CustomerRecord) Row() Row {
	return Row{
		"Email":          c.Email,
		"Command":        c.Command,
		"First Name":     c.FirstName,
		"Last Name":      c.LastName,
		"State":          c.State,
		"Verified Email": c.VerifiedEmail,
		"Tax Exempt":     c.TaxExempt,
	}
}
