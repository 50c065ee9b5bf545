package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zombor/invoice-tracker/internal/document"
	"github.com/zombor/invoice-tracker/internal/extraction"
	"github.com/zombor/invoice-tracker/internal/schema"
)

// ErrNotFound is returned when an edit names a record that does not exist
var ErrNotFound = errors.New("record not found")

// Service runs the extraction pipeline and applies user edits
type Service struct {
	extractor  extraction.Extractor
	tokens     TokenSource
	stores     *Stores
	propagator *Propagator
	status     *statusTracker
}

// NewService creates a new Service with empty stores and timestamp tokens
func NewService(extractor extraction.Extractor) *Service {
	return NewServiceWithDeps(extractor, NewTimestampTokens(), NewStores(), &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(extractor extraction.Extractor, tokens TokenSource, stores *Stores, timeSrc TimeSource) *Service {
	return &Service{
		extractor:  extractor,
		tokens:     tokens,
		stores:     stores,
		propagator: NewPropagator(stores.Invoices),
		status:     newStatusTracker(timeSrc),
	}
}

// Ingest extracts an invoice, its customer and its products from an uploaded
// document and stores them. Nothing is stored unless every stage succeeds.
func (s *Service) Ingest(ctx context.Context, file document.File) (*Ingestion, error) {
	s.status.start(file.Name)

	ing, err := s.extract(ctx, file)
	if err != nil {
		slog.Error("Failed to extract invoice",
			"filename", file.Name,
			"content_type", file.MIMEType,
			"file_size", len(file.Data),
			"error", err,
		)
		err = fmt.Errorf("data extraction failed: %w", err)
		s.status.fail(err.Error())
		return nil, err
	}

	// the three collections are written one after another, not atomically
	s.stores.Invoices.Insert(ing.Invoice)
	s.stores.Customers.Insert(ing.Customer)
	for _, p := range ing.Products {
		s.stores.Products.Insert(p)
	}
	s.status.done()

	slog.Info("Ingested invoice",
		"invoice_id", ing.Invoice.ID,
		"serial_number", ing.Invoice.SerialNumber,
		"products", len(ing.Products),
	)
	return ing, nil
}

func (s *Service) extract(ctx context.Context, file document.File) (*Ingestion, error) {
	doc, err := document.Normalize(file)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, doc, s.status.progress)
	if err != nil {
		return nil, err
	}

	tree, err := schema.Sanitize(text)
	if err != nil {
		slog.Debug("Unparseable extractor reply", "reply", text)
		return nil, err
	}

	normalized, err := schema.Normalize(tree)
	if err != nil {
		return nil, err
	}

	return Assign(schema.Decode(normalized), s.tokens.Generate()), nil
}

// Status returns the state of the most recent ingestion
func (s *Service) Status() Status {
	return s.status.get()
}

func (s *Service) view(inv Invoice) InvoiceView {
	return InvoiceView{
		Invoice:                inv,
		AdditionalChargesTotal: inv.AdditionalCharges.Total(),
		ProductCount:           s.stores.Products.CountByToken(inv.CorrelationToken),
	}
}

// ListInvoices returns all invoices with their derived values
func (s *Service) ListInvoices() []InvoiceView {
	invoices := s.stores.Invoices.List()
	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, s.view(inv))
	}
	return views
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id string) (InvoiceView, error) {
	inv, ok := s.stores.Invoices.Get(id)
	if !ok {
		return InvoiceView{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return s.view(inv), nil
}

// ListCustomers returns all customers
func (s *Service) ListCustomers() []Customer {
	return s.stores.Customers.List()
}

// ListProducts returns all products
func (s *Service) ListProducts() []Product {
	return s.stores.Products.List()
}

// UpdateInvoice replaces an invoice. The correlation token always stays the
// one the stored invoice was ingested with.
func (s *Service) UpdateInvoice(inv Invoice) (Invoice, error) {
	found := s.stores.Invoices.Update(inv.ID, func(stored *Invoice) {
		inv.CorrelationToken = stored.CorrelationToken
		*stored = inv
	})
	if !found {
		return Invoice{}, fmt.Errorf("invoice %s: %w", inv.ID, ErrNotFound)
	}
	return inv, nil
}

// UpdateCustomer replaces a customer and copies its name into the related invoice
func (s *Service) UpdateCustomer(c Customer) (Customer, error) {
	found := s.stores.Customers.Update(c.ID, func(stored *Customer) {
		c.CorrelationToken = stored.CorrelationToken
		*stored = c
	})
	if !found {
		return Customer{}, fmt.Errorf("customer %s: %w", c.ID, ErrNotFound)
	}
	s.propagator.CustomerEdited(c)
	return c, nil
}

// UpdateProduct recomputes the line total, replaces the product and copies
// its name into the related invoice
func (s *Service) UpdateProduct(p Product) (Product, error) {
	if !p.RecomputePriceWithTax() {
		slog.Warn("Keeping submitted price with tax", "product_id", p.ID, "quantity", p.Quantity, "unit_price", p.UnitPrice)
	}
	found := s.stores.Products.Update(p.ID, func(stored *Product) {
		p.CorrelationToken = stored.CorrelationToken
		*stored = p
	})
	if !found {
		return Product{}, fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	s.propagator.ProductEdited(p)
	return p, nil
}
