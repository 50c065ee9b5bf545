package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-tracker/internal/schema"
)

// Identifier prefixes
const (
	invoicePrefix  = "inv"
	customerPrefix = "cust"
	productPrefix  = "prod"
)

// TokenSource generates the correlation token for an ingestion
type TokenSource interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// SystemClock returns a TimeSource backed by time.Now
func SystemClock() TimeSource {
	return &defaultTimeSource{}
}

// TimestampTokens issues Unix millisecond tokens. A token is never repeated
// within the process: when the clock has not moved past the last token the
// next integer is used instead.
type TimestampTokens struct {
	mu    sync.Mutex
	clock TimeSource
	last  int64
}

// NewTimestampTokens creates a TimestampTokens reading the wall clock
func NewTimestampTokens() *TimestampTokens {
	return NewTimestampTokensWithClock(&defaultTimeSource{})
}

// NewTimestampTokensWithClock creates a TimestampTokens with a custom clock for testing
func NewTimestampTokensWithClock(clock TimeSource) *TimestampTokens {
	return &TimestampTokens{clock: clock}
}

func (t *TimestampTokens) Generate() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ms := t.clock.Now().UnixMilli()
	if ms <= t.last {
		ms = t.last + 1
	}
	t.last = ms
	return strconv.FormatInt(ms, 10)
}

// UUIDTokens issues random v4 UUID tokens
type UUIDTokens struct{}

func (UUIDTokens) Generate() string {
	return uuid.NewString()
}

// InvoiceID returns the invoice identifier for a token
func InvoiceID(token string) string { return invoicePrefix + "_" + token }

// CustomerID returns the customer identifier for a token
func CustomerID(token string) string { return customerPrefix + "_" + token }

// ProductID returns the identifier of the i-th product of an ingestion
func ProductID(token string, i int) string {
	return fmt.Sprintf("%s_%s_%d", productPrefix, token, i)
}

// ParseToken extracts the correlation token from an identifier
func ParseToken(id string) (string, bool) {
	parts := strings.Split(id, "_")
	switch {
	case len(parts) == 2 && (parts[0] == invoicePrefix || parts[0] == customerPrefix):
	case len(parts) == 3 && parts[0] == productPrefix:
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return "", false
		}
	default:
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Assign builds the typed records of one ingestion and stamps them with
// identifiers derived from token
func Assign(ex schema.Extracted, token string) *Ingestion {
	inv := Invoice{
		ID:               InvoiceID(token),
		CorrelationToken: token,
		SerialNumber:     schema.Lookup(ex.Invoice, "serialNumber"),
		CustomerName:     schema.Lookup(ex.Invoice, "customerName"),
		ProductName:      schema.Lookup(ex.Invoice, "productName"),
		TotalAmount:      schema.Lookup(ex.Invoice, "totalAmount"),
		Quantity:         schema.Lookup(ex.Invoice, "quantity"),
		Tax:              schema.Lookup(ex.Invoice, "tax"),
		Date:             schema.Lookup(ex.Invoice, "date"),
		AdditionalCharges: AdditionalCharges{
			MakingCharges:    schema.Lookup(ex.Invoice, "additionalCharges", "makingCharges"),
			DebitCardCharges: schema.Lookup(ex.Invoice, "additionalCharges", "debitCardCharges"),
			ShippingCharges:  schema.Lookup(ex.Invoice, "additionalCharges", "shippingCharges"),
			OtherCharges:     schema.Lookup(ex.Invoice, "additionalCharges", "otherCharges"),
		},
	}

	cust := Customer{
		ID:                  CustomerID(token),
		CorrelationToken:    token,
		Name:                schema.Lookup(ex.Customer, "name"),
		PhoneNumber:         schema.Lookup(ex.Customer, "phoneNumber"),
		TotalPurchaseAmount: schema.Lookup(ex.Customer, "totalPurchaseAmount"),
	}

	products := make([]Product, 0, len(ex.Products))
	for i, p := range ex.Products {
		products = append(products, Product{
			ID:               ProductID(token, i),
			CorrelationToken: token,
			Name:             schema.Lookup(p, "name"),
			Quantity:         schema.Lookup(p, "quantity"),
			UnitPrice:        schema.Lookup(p, "unitPrice"),
			Discount:         schema.Lookup(p, "discount"),
			Tax:              schema.Lookup(p, "tax"),
			PriceWithTax:     schema.Lookup(p, "priceWithTax"),
		})
	}

	return &Ingestion{
		Invoice:  inv,
		Customer: cust,
		Products: products,
	}
}
