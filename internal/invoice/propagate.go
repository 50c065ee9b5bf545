package invoice

import "log/slog"

// Propagator copies edited customer and product names into the invoice that
// shares their correlation token
type Propagator struct {
	invoices *Store[Invoice]
}

// NewPropagator creates a Propagator writing into invoices
func NewPropagator(invoices *Store[Invoice]) *Propagator {
	return &Propagator{invoices: invoices}
}

// tokenOf reads the token embedded in the identifier and only falls back to
// the stored token when the identifier has no recognizable form
func tokenOf(rec Record) (string, bool) {
	if token, ok := ParseToken(rec.Identity()); ok {
		return token, true
	}
	if token := rec.Correlation(); token != "" {
		return token, true
	}
	return "", false
}

// CustomerEdited republishes the customer name. It reports whether an
// invoice was updated.
func (p *Propagator) CustomerEdited(c Customer) bool {
	token, ok := tokenOf(c)
	if !ok {
		slog.Debug("No token for edited customer", "customer_id", c.ID)
		return false
	}

	var invoiceID string
	updated := p.invoices.UpdateByToken(token, func(inv *Invoice) bool {
		inv.CustomerName = c.Name
		invoiceID = inv.ID
		return true
	})
	if !updated {
		slog.Debug("No invoice for edited customer", "customer_id", c.ID)
		return false
	}
	slog.Debug("Propagated customer name", "customer_id", c.ID, "invoice_id", invoiceID)
	return true
}

// ProductEdited republishes the product name, but only into an invoice that
// already has a product name
func (p *Propagator) ProductEdited(pr Product) bool {
	token, ok := tokenOf(pr)
	if !ok {
		slog.Debug("No token for edited product", "product_id", pr.ID)
		return false
	}

	var invoiceID string
	updated := p.invoices.UpdateByToken(token, func(inv *Invoice) bool {
		invoiceID = inv.ID
		if inv.ProductName == "" {
			return false
		}
		inv.ProductName = pr.Name
		return true
	})
	if !updated {
		slog.Debug("Invoice not updated for edited product", "product_id", pr.ID, "invoice_id", invoiceID)
		return false
	}
	slog.Debug("Propagated product name", "product_id", pr.ID, "invoice_id", invoiceID)
	return true
}
