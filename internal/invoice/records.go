package invoice

import "github.com/shopspring/decimal"

// Record is anything kept in a Store
type Record interface {
	// Identity is the record identifier used for updates
	Identity() string
	// Correlation is the token shared by every record of one ingestion
	Correlation() string
}

// AdditionalCharges are the extra amounts billed on top of the line items
type AdditionalCharges struct {
	MakingCharges    string `json:"makingCharges"`
	DebitCardCharges string `json:"debitCardCharges"`
	ShippingCharges  string `json:"shippingCharges"`
	OtherCharges     string `json:"otherCharges"`
}

// Total sums the charges. Values that are not plain decimals count as zero.
func (c AdditionalCharges) Total() string {
	total := decimal.Zero
	for _, v := range []string{c.MakingCharges, c.DebitCardCharges, c.ShippingCharges, c.OtherCharges} {
		if d, err := decimal.NewFromString(v); err == nil {
			total = total.Add(d)
		}
	}
	return total.StringFixed(2)
}

// Invoice is one extracted invoice. CustomerName and ProductName are
// denormalized copies kept in sync by the Propagator.
type Invoice struct {
	ID                string            `json:"id"`
	CorrelationToken  string            `json:"correlationToken"`
	SerialNumber      string            `json:"serialNumber" validate:"required"`
	CustomerName      string            `json:"customerName"`
	ProductName       string            `json:"productName"`
	TotalAmount       string            `json:"totalAmount"`
	Quantity          string            `json:"quantity"`
	Tax               string            `json:"tax"`
	Date              string            `json:"date"`
	AdditionalCharges AdditionalCharges `json:"additionalCharges"`
}

func (i Invoice) Identity() string    { return i.ID }
func (i Invoice) Correlation() string { return i.CorrelationToken }

// Customer is the recipient of an invoice
type Customer struct {
	ID                  string `json:"id"`
	CorrelationToken    string `json:"correlationToken"`
	Name                string `json:"name" validate:"required"`
	PhoneNumber         string `json:"phoneNumber"`
	TotalPurchaseAmount string `json:"totalPurchaseAmount"`
}

func (c Customer) Identity() string    { return c.ID }
func (c Customer) Correlation() string { return c.CorrelationToken }

// Product is one line item of an invoice
type Product struct {
	ID               string `json:"id"`
	CorrelationToken string `json:"correlationToken"`
	Name             string `json:"name" validate:"required"`
	Quantity         string `json:"quantity"`
	UnitPrice        string `json:"unitPrice"`
	Discount         string `json:"discount"`
	Tax              string `json:"tax"`
	PriceWithTax     string `json:"priceWithTax"`
}

func (p Product) Identity() string    { return p.ID }
func (p Product) Correlation() string { return p.CorrelationToken }

// RecomputePriceWithTax sets PriceWithTax to quantity*unitPrice - discount + tax.
// It reports false and leaves the product alone when an input is not a
// plain decimal. An empty discount counts as zero.
func (p *Product) RecomputePriceWithTax() bool {
	quantity, err := decimal.NewFromString(p.Quantity)
	if err != nil {
		return false
	}
	unitPrice, err := decimal.NewFromString(p.UnitPrice)
	if err != nil {
		return false
	}
	tax, err := decimal.NewFromString(p.Tax)
	if err != nil {
		return false
	}
	discount := decimal.Zero
	if p.Discount != "" {
		if discount, err = decimal.NewFromString(p.Discount); err != nil {
			return false
		}
	}

	p.PriceWithTax = quantity.Mul(unitPrice).Sub(discount).Add(tax).StringFixed(2)
	return true
}

// InvoiceView is an invoice with the values derived from its related records
type InvoiceView struct {
	Invoice
	AdditionalChargesTotal string `json:"additionalChargesTotal"`
	ProductCount           int    `json:"productCount"`
}

// Ingestion is the set of records produced from one uploaded document
type Ingestion struct {
	Invoice  Invoice   `json:"invoice"`
	Customer Customer  `json:"customer"`
	Products []Product `json:"products"`
}
