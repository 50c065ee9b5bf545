package extraction

// InvoicePrompt is the instruction sent alongside every document
const InvoicePrompt = `Extract invoice information from this document. Extract ALL line items, separating products and charges.

IMPORTANT EXTRACTION RULES:
1. IGNORE the invoice issuer's own contact details (phone/email in the header)
2. Read the customer's name and phone number ONLY from the Consignee/Customer/Bill To section
3. Product tax is the sum of the tax components shown for that line (for example CGST + SGST)
4. Invoice tax is the sum of all product taxes
5. priceWithTax for a line is quantity * unitPrice + tax
6. Write every amount as a plain number: no currency symbols and no thousands separators
7. Quantities are numbers only
8. DO NOT MAKE UP OR ASSUME ANY VALUES - if a field is not found, leave it empty

Return ONLY a valid JSON object with this shape:

invoice: {
  serialNumber: Invoice/Bill number exactly as shown,
  totalAmount: Final total amount including all taxes and charges,
  quantity: Total items purchased (sum of all product quantities),
  tax: Sum of all product taxes,
  date: Invoice date exactly as shown,
  customerName: Name from the Consignee section only,
  productName: Name of the first product only,
  additionalCharges: {
    makingCharges: Making charges (if any),
    debitCardCharges: Debit card charges (if any),
    shippingCharges: Shipping charges (if any),
    otherCharges: Any other additional charges
  }
},

products: Array of ONLY actual product items, each containing:
  - name: Full product description
  - quantity: Number of items
  - unitPrice: Base price per item
  - discount: Discount amount (if any)
  - tax: Tax for this line (sum of its tax components)
  - priceWithTax: quantity * unitPrice + tax

customer: {
  name: Name from the Consignee section only,
  phoneNumber: Phone number from the Consignee section only (leave empty if not found),
  totalPurchaseAmount: Same as invoice.totalAmount
}

Example structure (with placeholder values):
{
  "invoice": {
    "serialNumber": "[INVOICE_NUMBER]",
    "customerName": "[CONSIGNEE_NAME]",
    "productName": "[FIRST_PRODUCT_NAME]",
    "totalAmount": "0.00",
    "quantity": "0",
    "tax": "0.00",
    "date": "[DATE]",
    "additionalCharges": {
      "makingCharges": "0.00",
      "debitCardCharges": "0.00",
      "shippingCharges": "0.00",
      "otherCharges": "0.00"
    }
  },
  "products": [
    {
      "name": "[PRODUCT_NAME]",
      "quantity": "0",
      "unitPrice": "0.00",
      "discount": "0.00",
      "tax": "0.00",
      "priceWithTax": "0.00"
    }
  ],
  "customer": {
    "name": "[CONSIGNEE_NAME]",
    "phoneNumber": "[CONSIGNEE_PHONE_NUMBER]",
    "totalPurchaseAmount": "0.00"
  }
}`
