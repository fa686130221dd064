package brightpearl

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a JSON scalar read as a string. Brightpearl returns ids, amounts and
// flags as numbers in some resources and strings in others; null reads as "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{' || b[0] == '[':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Float parses the value, reporting false when it is blank or not a number.
func (t Text) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	return f, err == nil
}

// Contact is the subset of /contact-service/contact the exports read.
type Contact struct {
	ContactID        Text             `json:"contactId"`
	IsPrimaryContact Text             `json:"isPrimaryContact"`
	FirstName        Text             `json:"firstName"`
	LastName         Text             `json:"lastName"`
	PostAddressIDs   map[string]Text  `json:"postAddressIds"`
	Organisation     Organisation     `json:"organisation"`
	Communication    Communication    `json:"communication"`
	FinancialDetails FinancialDetails `json:"financialDetails"`
	CustomFields     map[string]Text  `json:"customFields"`
}

// Name is "first last" with surrounding blanks removed.
func (c Contact) Name() string {
	return strings.TrimSpace(string(c.FirstName) + " " + string(c.LastName))
}

// Email is the primary email address.
func (c Contact) Email() string {
	return string(c.Communication.Emails["PRI"].Email)
}

// Phone is the primary telephone, else the mobile.
func (c Contact) Phone() string {
	if p := c.Communication.Telephones["PRI"]; p != "" {
		return string(p)
	}
	return string(c.Communication.Telephones["MOB"])
}

// Website is the primary website url.
func (c Contact) Website() string {
	return string(c.Communication.Websites["PRI"].URL)
}

// HasOrganisation reports whether the contact belongs to a company.
func (c Contact) HasOrganisation() bool {
	id := strings.TrimSpace(string(c.Organisation.OrganisationID))
	return id != "" && id != "0"
}

type Organisation struct {
	OrganisationID Text `json:"organisationId"`
	Name           Text `json:"name"`
}

type Communication struct {
	Emails     map[string]Email   `json:"emails"`
	Telephones map[string]Text    `json:"telephones"`
	Websites   map[string]Website `json:"websites"`
}

type Email struct {
	Email Text `json:"email"`
}

type Website struct {
	URL Text `json:"url"`
}

type FinancialDetails struct {
	TaxNumber          Text `json:"taxNumber"`
	PriceListID        Text `json:"priceListId"`
	NominalCode        Text `json:"nominalCode"`
	TaxCodeID          Text `json:"taxCodeId"`
	CreditTermDays     Text `json:"creditTermDays"`
	CurrencyID         Text `json:"currencyId"`
	DiscountPercentage Text `json:"discountPercentage"`
	CreditTermTypeID   Text `json:"creditTermTypeId"`
}

// PostalAddress is /contact-service/postal-address.
type PostalAddress struct {
	AddressID      Text `json:"addressId"`
	AddressLine1   Text `json:"addressLine1"`
	AddressLine2   Text `json:"addressLine2"`
	AddressLine3   Text `json:"addressLine3"`
	AddressLine4   Text `json:"addressLine4"`
	PostalCode     Text `json:"postalCode"`
	CountryIsoCode Text `json:"countryIsoCode"`
}

// Order is the subset of /order-service/order the orders export reads.
type Order struct {
	ID                 Text                `json:"id"`
	OrderTypeCode      Text                `json:"orderTypeCode"`
	OrderStatus        OrderStatus         `json:"orderStatus"`
	OrderPaymentStatus Text                `json:"orderPaymentStatus"`
	Reference          Text                `json:"reference"`
	State              OrderState          `json:"state"`
	CreatedOn          Text                `json:"createdOn"`
	Currency           OrderCurrency       `json:"currency"`
	Invoices           []Invoice           `json:"invoices"`
	Parties            Parties             `json:"parties"`
	OrderRows          map[string]OrderRow `json:"orderRows"`
	Delivery           OrderDelivery       `json:"delivery"`
	StockStatusCode    Text                `json:"stockStatusCode"`
	AllocationStatus   Text                `json:"allocationStatusCode"`
	ShippingStatusCode Text                `json:"shippingStatusCode"`
}

type OrderStatus struct {
	Name Text `json:"name"`
}

type OrderState struct {
	Tax Text `json:"tax"`
}

type OrderCurrency struct {
	OrderCurrencyCode Text `json:"orderCurrencyCode"`
	ExchangeRate      Text `json:"exchangeRate"`
}

type Invoice struct {
	InvoiceReference Text `json:"invoiceReference"`
}

type Parties struct {
	Delivery Party `json:"delivery"`
	Billing  Party `json:"billing"`
}

// Party is the delivery or billing block of an order.
type Party struct {
	AddressFullName Text `json:"addressFullName"`
	CompanyName     Text `json:"companyName"`
	AddressLine1    Text `json:"addressLine1"`
	AddressLine2    Text `json:"addressLine2"`
	AddressLine3    Text `json:"addressLine3"`
	AddressLine4    Text `json:"addressLine4"`
	PostalCode      Text `json:"postalCode"`
	Country         Text `json:"country"`
	Telephone       Text `json:"telephone"`
	MobileTelephone Text `json:"mobileTelephone"`
	Email           Text `json:"email"`
	ContactID       Text `json:"contactId"`
}

type OrderRow struct {
	ProductName  Text     `json:"productName"`
	ProductSku   Text     `json:"productSku"`
	ProductID    Text     `json:"productId"`
	Quantity     Quantity `json:"quantity"`
	ProductPrice Money    `json:"productPrice"`
	RowValue     RowValue `json:"rowValue"`
}

type Quantity struct {
	Magnitude Text `json:"magnitude"`
}

type Money struct {
	Value        Text `json:"value"`
	CurrencyCode Text `json:"currencyCode"`
}

type RowValue struct {
	RowNet  Money `json:"rowNet"`
	RowTax  Money `json:"rowTax"`
	TaxCode Text  `json:"taxCode"`
	TaxRate Text  `json:"taxRate"`
}

type OrderDelivery struct {
	ShippingMethodID Text `json:"shippingMethodId"`
}

// Tag is one entry of /contact-service/tag.
type Tag struct {
	TagID   Text `json:"tagId"`
	TagName Text `json:"tagName"`
}
