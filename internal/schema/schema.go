package schema

// Kind is the declared type of a schema field
type Kind int

const (
	Text Kind = iota
	Number
	List
	Record
)

// Canonical empty values substituted for missing fields
const (
	EmptyText   = "N/A"
	EmptyNumber = "0.00"
)

// Empty returns the canonical empty value for the kind. Lists and records
// get a fresh value on every call.
func (k Kind) Empty() any {
	switch k {
	case Number:
		return EmptyNumber
	case List:
		return []any{}
	case Record:
		return map[string]any{}
	default:
		return EmptyText
	}
}

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case List:
		return "list"
	case Record:
		return "record"
	default:
		return "unknown"
	}
}

// Field declares one node of the schema. Fields is set for records and Elem
// for lists whose elements are normalized individually.
type Field struct {
	Kind   Kind
	Fields map[string]Field
	Elem   *Field
}

func leaf(k Kind) Field { return Field{Kind: k} }

func record(fields map[string]Field) Field {
	return Field{Kind: Record, Fields: fields}
}

// InvoiceFields are the keys of the invoice record
var InvoiceFields = record(map[string]Field{
	"serialNumber": leaf(Text),
	"customerName": leaf(Text),
	"productName":  leaf(Text),
	"totalAmount":  leaf(Number),
	"quantity":     leaf(Number),
	"tax":          leaf(Number),
	"date":         leaf(Text),
	"additionalCharges": record(map[string]Field{
		"makingCharges":    leaf(Number),
		"debitCardCharges": leaf(Number),
		"shippingCharges":  leaf(Number),
		"otherCharges":     leaf(Number),
	}),
})

// CustomerFields are the keys of the customer record
var CustomerFields = record(map[string]Field{
	"name":                leaf(Text),
	"phoneNumber":         leaf(Text),
	"totalPurchaseAmount": leaf(Number),
})

// ProductFields are the keys of each line item
var ProductFields = record(map[string]Field{
	"name":         leaf(Text),
	"quantity":     leaf(Number),
	"unitPrice":    leaf(Number),
	"discount":     leaf(Number),
	"tax":          leaf(Number),
	"priceWithTax": leaf(Number),
})

// InvoiceDocument is the full shape requested from the extractor
var InvoiceDocument = record(map[string]Field{
	"invoice":  InvoiceFields,
	"customer": CustomerFields,
	"products": {Kind: List, Elem: &ProductFields},
})
