package model

// Input column orders, as written by the Brightpearl exports.
var (
	CompanyColumns = []string{
		"companyId", "companyName", "taxNumber", "email", "phone", "website", "isPrimaryContact",
		"priceListId", "nominalCode", "taxCodeId", "creditTermDays", "currencyId",
		"discountPercentage", "creditTermTypeId",
	}
	ContactColumns = []string{
		"contactId", "isPrimaryContact", "name", "email", "phone", "tagList", "companyId",
		"Wholesale", "Joor Account Code",
	}
	AddressColumns = []string{
		"contactId", "addressId", "isBilling", "isDelivery", "isDefault",
		"addressLine1", "addressLine2", "addressLine3", "addressLine4", "city", "postcode", "country",
	}
	CacheColumns = []string{
		"address_id", "address_line_1", "address_line_2", "postcode", "country",
		"normalized_city", "normalized_province_code", "last_updated",
	}
)

// Column names of the company bulk-import file. The downstream importer
// matches on these strings, so they must not change.
const (
	ColName                    = "Name"
	ColCommand                 = "Command"
	ColMainContactCustomerID   = "Main Contact: Customer ID"
	ColLocationName            = "Location: Name"
	ColLocationCommand         = "Location: Command"
	ColLocationPhone           = "Location: Phone"
	ColLocationLocale          = "Location: Locale"
	ColLocationTaxID           = "Location: Tax ID"
	ColLocationTaxSetting      = "Location: Tax Setting"
	ColLocationTaxExemptions   = "Location: Tax Exemptions"
	ColAllowShippingToAny      = "Location: Allow Shipping To Any Address"
	ColCheckoutToDraft         = "Location: Checkout To Draft"
	ColCheckoutPaymentTerms    = "Location: Checkout Payment Terms"
	ColCheckoutPayNowOnly      = "Location: Checkout Pay Now Only"
	ColShippingFirstName       = "Location: Shipping First Name"
	ColShippingLastName        = "Location: Shipping Last Name"
	ColShippingRecipient       = "Location: Shipping Recipient"
	ColShippingPhone           = "Location: Shipping Phone"
	ColShippingAddress1        = "Location: Shipping Address 1"
	ColShippingAddress2        = "Location: Shipping Address 2"
	ColShippingZip             = "Location: Shipping Zip"
	ColShippingCity            = "Location: Shipping City"
	ColShippingProvinceCode    = "Location: Shipping Province Code"
	ColShippingCountryCode     = "Location: Shipping Country Code"
	ColBillingFirstName        = "Location: Billing First Name"
	ColBillingLastName         = "Location: Billing Last Name"
	ColBillingRecipient        = "Location: Billing Recipient"
	ColBillingPhone            = "Location: Billing Phone"
	ColBillingAddress1         = "Location: Billing Address 1"
	ColBillingAddress2         = "Location: Billing Address 2"
	ColBillingZip              = "Location: Billing Zip"
	ColBillingCity             = "Location: Billing City"
	ColBillingProvinceCode     = "Location: Billing Province Code"
	ColBillingCountryCode      = "Location: Billing Country Code"
	ColLocationCatalogs        = "Location: Catalogs"
	ColLocationCatalogsCommand = "Location: Catalogs Command"
	ColCustomerEmail           = "Customer: Email"
	ColCustomerCommand         = "Customer: Command"
	ColCustomerFirstName       = "Customer: First Name"
	ColCustomerLastName        = "Customer: Last Name"
	ColCustomerLocationRole    = "Customer: Location Role"
	ColMetaContactID           = "Metafield: brightpearl.contact_id [single_line_text_field]"
	ColMetaWholesale           = "Metafield: brightpearl.wholesale [boolean]"
)

// LocationColumns is the fixed column order of the converted companies file.
var LocationColumns = []string{
	ColName, ColCommand, ColMainContactCustomerID,
	ColLocationName, ColLocationCommand, ColLocationPhone, ColLocationLocale, ColLocationTaxID,
	ColLocationTaxSetting, ColLocationTaxExemptions,
	ColAllowShippingToAny, ColCheckoutToDraft, ColCheckoutPaymentTerms, ColCheckoutPayNowOnly,
	ColShippingFirstName, ColShippingLastName, ColShippingRecipient, ColShippingPhone,
	ColShippingAddress1, ColShippingAddress2, ColShippingZip, ColShippingCity,
	ColShippingProvinceCode, ColShippingCountryCode,
	ColBillingFirstName, ColBillingLastName, ColBillingRecipient, ColBillingPhone,
	ColBillingAddress1, ColBillingAddress2, ColBillingZip, ColBillingCity,
	ColBillingProvinceCode, ColBillingCountryCode,
	ColLocationCatalogs, ColLocationCatalogsCommand,
	ColCustomerEmail, ColCustomerCommand, ColCustomerFirstName, ColCustomerLastName, ColCustomerLocationRole,
	ColMetaContactID, ColMetaWholesale,
}

// CustomerColumns is the fixed column order of customers.csv.
var CustomerColumns = []string{
	"Email", "Command", "First Name", "Last Name", "State", "Verified Email", "Tax Exempt",
}

// OrderColumns is the fixed column order of the orders export.
var OrderColumns = []string{
	"Order ID", "Order Type", "Status", "Payment Status", "Item name", "Order row SKU", "Quantity",
	"Invoice", "Ref", "Tax status", "Date created", "Currency", "Exchange rate",
	"Delivery name", "Delivery company", "Delivery street", "Delivery suburb", "Delivery city",
	"Delivery state", "Delivery postcode", "Delivery country", "Delivery telephone", "Delivery mobile",
	"Delivery email",
	"Billing name", "Billing company", "Billing Street", "Billing Suburb", "Billing City",
	"Billing State", "Billing Postcode", "Billing Country", "Billing telephone", "Billing mobile",
	"Billing email",
	"Contact ID", "Product ID", "Order list price",
	"Row net", "Row tax", "Row gross",
	"Item tax class", "Tax Rate", "Shipping Method Id", "Stock Status Code", "Allocation Status Code",
	"Shipping Status Code",
}
