package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		extractor   *mockExtractor
		stores      *Stores
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, time.Minute, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	seed := func() {
		_, err := service.Ingest(context.Background(), csvUpload)
		Expect(err).NotTo(HaveOccurred())
	}

	doRequest := func(method, path string, body io.Reader) *http.Response {
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decodeBody := func(resp *http.Response, v any) {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, v)).To(Succeed())
	}

	BeforeEach(func() {
		extractor = newMockExtractor()
		stores = NewStores()
		service = NewServiceWithDeps(extractor, &mockTokens{tokens: []string{"1700000000000"}}, stores, &mockTimeSource{now: time.Unix(1700000000, 0)})
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleUpload", func() {
		var (
			filename string
			content  []byte
		)

		upload := func() *http.Response {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			part, err := writer.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(content)
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).To(Succeed())

			resp, err := http.Post(ghttpServer.URL()+"/api/uploads", writer.FormDataContentType(), body)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		BeforeEach(func() {
			filename = "invoice.csv"
			content = []byte("Item,Qty\nPen,2\n")
		})

		When("extraction succeeds", func() {
			It("should return the created records", func() {
				resp := upload()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var ing Ingestion
				decodeBody(resp, &ing)
				Expect(ing.Invoice.ID).To(Equal("inv_1700000000000"))
				Expect(ing.Customer.Name).To(Equal("Jane"))
				Expect(ing.Products).To(HaveLen(1))
			})

			It("should pass the detected media type to the extractor", func() {
				resp := upload()
				resp.Body.Close()
				Expect(extractor.received.MIMEType).To(Equal("text/csv"))
				Expect(extractor.received.Name).To(Equal("invoice.csv"))
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				extractor.err = errors.New("quota exceeded")
			})

			It("should return unprocessable entity with the message", func() {
				resp := upload()
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

				var body map[string]string
				decodeBody(resp, &body)
				Expect(body["error"]).To(HavePrefix("data extraction failed: "))
				Expect(body["error"]).To(ContainSubstring("quota exceeded"))
			})

			It("should not store anything", func() {
				upload().Body.Close()
				Expect(stores.Invoices.Len()).To(BeZero())
			})
		})

		When("no file is provided", func() {
			It("should return bad request", func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.WriteField("note", "nothing")).To(Succeed())
				Expect(writer.Close()).To(Succeed())

				resp, err := http.Post(ghttpServer.URL()+"/api/uploads", writer.FormDataContentType(), body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleStatus", func() {
		It("should report the latest ingestion", func() {
			seed()
			resp := doRequest(http.MethodGet, "/api/status", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var status Status
			decodeBody(resp, &status)
			Expect(status.State).To(Equal(StateDone))
			Expect(status.File).To(Equal("invoice.csv"))
		})
	})

	Describe("handleListInvoices", func() {
		When("invoices exist", func() {
			BeforeEach(seed)

			It("should return the invoices with derived values", func() {
				resp := doRequest(http.MethodGet, "/api/invoices", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var views []InvoiceView
				decodeBody(resp, &views)
				Expect(views).To(HaveLen(1))
				Expect(views[0].ProductCount).To(Equal(1))
				Expect(views[0].AdditionalChargesTotal).To(Equal("0.00"))
			})
		})

		When("no invoices exist", func() {
			It("should return an empty array", func() {
				resp := doRequest(http.MethodGet, "/api/invoices", nil)
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
			})
		})
	})

	Describe("handleGetInvoice", func() {
		BeforeEach(seed)

		It("should return a known invoice", func() {
			resp := doRequest(http.MethodGet, "/api/invoices/inv_1700000000000", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var view InvoiceView
			decodeBody(resp, &view)
			Expect(view.SerialNumber).To(Equal("A1"))
		})

		It("should return not found for an unknown invoice", func() {
			resp := doRequest(http.MethodGet, "/api/invoices/inv_42", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleListCustomers", func() {
		BeforeEach(seed)

		It("should return the customers", func() {
			resp := doRequest(http.MethodGet, "/api/customers", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var customers []Customer
			decodeBody(resp, &customers)
			Expect(customers).To(HaveLen(1))
			Expect(customers[0].ID).To(Equal("cust_1700000000000"))
		})
	})

	Describe("handleListProducts", func() {
		BeforeEach(seed)

		It("should return the products", func() {
			resp := doRequest(http.MethodGet, "/api/products", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var products []Product
			decodeBody(resp, &products)
			Expect(products).To(HaveLen(1))
			Expect(products[0].ID).To(Equal("prod_1700000000000_0"))
		})
	})

	Describe("handleUpdateCustomer", func() {
		BeforeEach(seed)

		When("the customer exists", func() {
			It("should propagate the new name to the invoice", func() {
				resp := doRequest(http.MethodPut, "/api/customers/cust_1700000000000", strings.NewReader(`{"name":"Jane Doe","phoneNumber":"555"}`))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var updated Customer
				decodeBody(resp, &updated)
				Expect(updated.ID).To(Equal("cust_1700000000000"))
				Expect(updated.CorrelationToken).To(Equal("1700000000000"))

				inv, ok := stores.Invoices.Get("inv_1700000000000")
				Expect(ok).To(BeTrue())
				Expect(inv.CustomerName).To(Equal("Jane Doe"))
			})
		})

		When("the body carries a different correlation token", func() {
			It("should keep the stored token", func() {
				resp := doRequest(http.MethodPut, "/api/customers/cust_1700000000000", strings.NewReader(`{"name":"Mallory","correlationToken":"999"}`))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var updated Customer
				decodeBody(resp, &updated)
				Expect(updated.CorrelationToken).To(Equal("1700000000000"))

				inv, ok := stores.Invoices.Get("inv_1700000000000")
				Expect(ok).To(BeTrue())
				Expect(inv.CustomerName).To(Equal("Mallory"))
			})
		})

		When("the customer does not exist", func() {
			It("should return not found", func() {
				resp := doRequest(http.MethodPut, "/api/customers/cust_42", strings.NewReader(`{"name":"Nobody"}`))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})

		When("the name is empty", func() {
			It("should return bad request", func() {
				resp := doRequest(http.MethodPut, "/api/customers/cust_1700000000000", strings.NewReader(`{"name":""}`))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the body is not JSON", func() {
			It("should return bad request", func() {
				resp := doRequest(http.MethodPut, "/api/customers/cust_1700000000000", strings.NewReader(`name=Jane`))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleUpdateProduct", func() {
		BeforeEach(seed)

		It("should recompute the price and propagate the name", func() {
			resp := doRequest(http.MethodPut, "/api/products/prod_1700000000000_0",
				strings.NewReader(`{"name":"Fountain Pen","quantity":"3","unitPrice":"75.00","discount":"5","tax":"13.5"}`))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var updated Product
			decodeBody(resp, &updated)
			Expect(updated.PriceWithTax).To(Equal("233.50"))

			inv, ok := stores.Invoices.Get("inv_1700000000000")
			Expect(ok).To(BeTrue())
			Expect(inv.ProductName).To(Equal("Fountain Pen"))
		})
	})

	Describe("handleUpdateInvoice", func() {
		BeforeEach(seed)

		It("should replace the invoice", func() {
			resp := doRequest(http.MethodPut, "/api/invoices/inv_1700000000000",
				strings.NewReader(`{"serialNumber":"A2","totalAmount":"200.00"}`))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()

			inv, ok := stores.Invoices.Get("inv_1700000000000")
			Expect(ok).To(BeTrue())
			Expect(inv.SerialNumber).To(Equal("A2"))
			Expect(inv.TotalAmount).To(Equal("200.00"))
		})
	})

	Describe("CORS", func() {
		It("should answer preflight requests", func() {
			resp := doRequest(http.MethodOptions, "/api/invoices", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("PUT"))
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer()
		})

		It("should reject requests without credentials", func() {
			resp := doRequest(http.MethodGet, "/api/invoices", nil)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("should accept valid credentials", func() {
			req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/invoices", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:secret")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
