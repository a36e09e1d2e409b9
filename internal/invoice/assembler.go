// Package invoice maps a completed order record into a renderable
// invoice document. The assembler is a pure function with no network,
// storage or clock access, so the same record always yields the same
// document and it is safe to call any number of times.
package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/tour-checkout/internal/model"
)

// paidStatus is the payment status printed on every assembled invoice;
// an invoice only exists for a captured order.
const paidStatus = "PAID"

// invoiceNumberLen is how many characters of the gateway order id make
// up the human-readable invoice number.
const invoiceNumberLen = 8

// Config carries the presentation constants of the assembler. TaxShare
// is the flat ratio of the captured total reported as tax; the source
// system applies one flat rate to the whole order, so per-item tax
// categories are deliberately not modeled.
type Config struct {
	Seller      model.InvoiceSeller
	TaxShare    decimal.Decimal // portion of the total reported as tax
	TaxLabel    string          // label printed next to the tax line
	QRBaseURL   string          // base URL of the scannable invoice reference
	NumberIntro string          // prefix of the invoice number
}

// DefaultConfig returns the constants of the original deployment: a
// fixed seller block, the Spanish flat VAT split and the public invoice
// lookup URL.
func DefaultConfig() Config {
	return Config{
		Seller: model.InvoiceSeller{
			Name:    "Tours PayPal Next",
			Address: "Calle Principal 123, Madrid, España",
			Email:   "info@tours-paypal.com",
		},
		TaxShare:    decimal.New(17, -2), // 0.17 of the total
		TaxLabel:    "IVA (21%)",
		QRBaseURL:   "https://tours-paypal.com/invoice",
		NumberIntro: "INV-",
	}
}

// Assembler builds invoice documents from order records.
type Assembler struct {
	cfg Config
}

// NewAssembler constructs an Assembler with the given configuration.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble maps an order record into an invoice document. The tax line
// is the configured flat share of the captured total rounded to two
// decimals; the subtotal is the remainder, so subtotal and tax always
// sum exactly to the captured amount and the document total equals
// OrderRecord.CapturedAmount by construction.
func (a *Assembler) Assemble(rec *model.OrderRecord) model.InvoiceDocument {
	total := rec.CapturedAmount
	tax := total.Mul(a.cfg.TaxShare).Round(2)
	subtotal := total.Sub(tax)

	lines := make([]model.InvoiceLine, 0, len(rec.LineItems))
	for _, it := range rec.LineItems {
		lines = append(lines, model.InvoiceLine{
			Description: it.Name,
			Detail:      it.Language + " • " + it.Time,
			Date:        it.Date,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal(),
		})
	}

	name := rec.Customer.FirstName + " " + rec.Customer.LastName
	return model.InvoiceDocument{
		InvoiceNumber: a.cfg.NumberIntro + shortID(rec.GatewayOrderID),
		IssuedAt:      rec.CapturedAt.UTC(),
		Seller:        a.cfg.Seller,
		CustomerName:  name,
		CustomerEmail: rec.Customer.Email,
		CustomerPhone: rec.Customer.Phone,
		Lines:         lines,
		Subtotal:      subtotal,
		TaxLabel:      a.cfg.TaxLabel,
		TaxAmount:     tax,
		Total:         total,
		CurrencyCode:  rec.CurrencyCode,
		Status:        paidStatus,
		QRReference:   a.cfg.QRBaseURL + "/" + rec.GatewayOrderID,
	}
}

// shortID truncates a gateway order id to the invoice number length;
// shorter ids are used whole.
func shortID(id string) string {
	if len(id) > invoiceNumberLen {
		return id[:invoiceNumberLen]
	}
	return id
}
