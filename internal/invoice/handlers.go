package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/invoice-tracker/internal/document"
)

const maxFormSize = int64(50 << 20) // 50MB

// respondError writes a JSON error body
func respondError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// respondJSON writes v as a JSON body
func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUpload runs the extraction pipeline on an uploaded document
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		respondError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		respondError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		respondError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	file := document.File{
		Name:     header.Filename,
		MIMEType: document.DetectMIMEType(header.Filename, header.Header.Get("Content-Type")),
		Data:     data,
	}

	ctx := r.Context()
	if s.extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.extractTimeout)
		defer cancel()
	}

	ing, err := s.service.Ingest(ctx, file)
	if err != nil {
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	respondJSON(w, http.StatusCreated, ing)
}

// handleStatus returns the state of the latest ingestion
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.Status())
}

// handleListInvoices returns all invoices
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListInvoices())
}

// handleGetInvoice returns a single invoice
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetInvoice(r.PathValue("id"))
	if err != nil {
		respondError(w, "Invoice not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleListCustomers returns all customers
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListCustomers())
}

// handleListProducts returns all products
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListProducts())
}

// decodeEdit reads an edited record, takes its ID from the path and validates it
func (s *Server) decodeEdit(w http.ResponseWriter, r *http.Request, rec any, setID func(string)) bool {
	if err := json.NewDecoder(r.Body).Decode(rec); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	setID(r.PathValue("id"))
	if err := s.validate.Struct(rec); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// respondEdit maps the outcome of an update
func respondEdit(w http.ResponseWriter, v any, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case err != nil:
		slog.Error("Error updating record", "error", err)
		respondError(w, "Internal server error", http.StatusInternalServerError)
	default:
		respondJSON(w, http.StatusOK, v)
	}
}

// handleUpdateInvoice replaces an invoice
func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv Invoice
	if !s.decodeEdit(w, r, &inv, func(id string) { inv.ID = id }) {
		return
	}
	updated, err := s.service.UpdateInvoice(inv)
	respondEdit(w, updated, err)
}

// handleUpdateCustomer replaces a customer
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var c Customer
	if !s.decodeEdit(w, r, &c, func(id string) { c.ID = id }) {
		return
	}
	updated, err := s.service.UpdateCustomer(c)
	respondEdit(w, updated, err)
}

// handleUpdateProduct replaces a product
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p Product
	if !s.decodeEdit(w, r, &p, func(id string) { p.ID = id }) {
		return
	}
	updated, err := s.service.UpdateProduct(p)
	respondEdit(w, updated, err)
}
