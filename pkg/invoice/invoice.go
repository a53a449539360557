// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Item is one invoice line.
type Item struct {
	ProductID string
	Name      string
	Price     string // may carry currency symbols, parsed leniently
	Quantity  int
}

// Customer is the bill-to block.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	Pincode string
}

// Order carries everything the renderer needs.
type Order struct {
	OrderNumber    string
	CreatedAt      time.Time
	Customer       Customer
	Items          []Item
	Subtotal       float64
	DeliveryCharge float64
	Total          float64
}

// ParsePrice extracts a numeric amount from a price string, dropping currency
// symbols and separators. Unparseable input yields 0.
func ParsePrice(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

func currency(n float64) string {
	return fmt.Sprintf("Rs %.2f", n)
}

// Render produces the invoice PDF for an order.
func Render(o Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	// Brand header.
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 9, "Herb & Veda", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(85, 85, 85)
	pdf.CellFormat(0, 5, "Natural wellness products", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Invoice meta, right aligned.
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, "Invoice", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Order #: "+o.OrderNumber, "", 1, "R", false, 0, "")
	created := o.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pdf.CellFormat(0, 5, "Date: "+created.Format("02/01/2006"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	// Bill-to block.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, "Bill To:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	ci := o.Customer
	for _, line := range []string{
		ci.Name, ci.Email, ci.Phone, ci.Address,
		strings.TrimSpace(ci.City + " " + ci.State + " " + ci.Pincode),
	} {
		if line != "" {
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	// Items table.
	const (
		colProduct = 94.0
		colQty     = 20.0
		colUnit    = 30.0
		colTotal   = 30.0
	)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(colProduct, 7, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colUnit, 7, "Unit Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 7, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range o.Items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		unit := ParsePrice(it.Price)
		name := it.Name
		if name == "" {
			name = "Product"
		}
		if it.ProductID != "" {
			name = fmt.Sprintf("%s (#%s)", name, it.ProductID)
		}
		pdf.CellFormat(colProduct, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6, strconv.Itoa(qty), "", 0, "R", false, 0, "")
		pdf.CellFormat(colUnit, 6, currency(unit), "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, currency(unit*float64(qty)), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(colProduct+colQty+colUnit+colTotal, 1, "", "T", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Totals.
	delivery := currency(o.DeliveryCharge)
	if o.DeliveryCharge == 0 {
		delivery = "FREE"
	}
	totalRow := func(label, value string, size float64) {
		pdf.SetFont("Helvetica", "B", size)
		pdf.CellFormat(colProduct+colQty, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(colUnit, 6, label, "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", size)
		pdf.CellFormat(colTotal, 6, value, "", 1, "R", false, 0, "")
	}
	totalRow("Subtotal:", currency(o.Subtotal), 11)
	totalRow("Delivery:", delivery, 11)
	totalRow("Total:", currency(o.Total), 12)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(119, 119, 119)
	pdf.CellFormat(0, 5, "Thank you for your purchase! For support, contact support@herbveda.example", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice: render: %w", err)
	}
	return buf.Bytes(), nil
}
