package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceSeller is the constant issuer block printed on every invoice.
type InvoiceSeller struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// InvoiceLine is a single row in the invoice item table.
//
// Fields:
//  Description – ticket name.
//  Detail      – secondary line combining language and time.
//  Date        – tour date for the row.
//  Quantity    – number of tickets.
//  UnitPrice   – price per ticket.
//  LineTotal   – UnitPrice * Quantity.
type InvoiceLine struct {
	Description string          `json:"description"`
	Detail      string          `json:"detail"`
	Date        string          `json:"date"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// InvoiceDocument is a read view derived from an OrderRecord. It is
// never persisted on its own and always satisfies Total ==
// OrderRecord.CapturedAmount. The tax line is a flat-rate split of the
// captured total, not derived from per-item tax categories.
type InvoiceDocument struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	IssuedAt      time.Time       `json:"issuedAt"`
	Seller        InvoiceSeller   `json:"seller"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	Lines         []InvoiceLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxLabel      string          `json:"taxLabel"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
	CurrencyCode  string          `json:"currencyCode"`
	Status        string          `json:"status"`
	QRReference   string          `json:"qrReference"`
}
