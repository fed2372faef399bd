package render

import (
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/customer"
	"github.com/xraph/invoiceledger/invoice"
)

// Page geometry in millimetres.
const (
	pageW      = 210.0
	pageH      = 297.0
	marginX    = 18.0
	marginTop  = 18.0
	contentW   = pageW - 2*marginX
	bottomStop = pageH - 28.0

	colDesc  = 92.0
	colQty   = 20.0
	colUnit  = 30.0
	colTotal = contentW - colDesc - colQty - colUnit

	rowPad  = 2.0
	lineH   = 4.6
	family  = "Helvetica"
	rightX  = pageW - marginX
	headerW = 80.0
)

type rgb struct{ r, g, b int }

var (
	ink       = rgb{0x00, 0x00, 0x00}
	body      = rgb{0x33, 0x33, 0x33}
	muted     = rgb{0x55, 0x55, 0x55}
	faint     = rgb{0x94, 0xa3, 0xb8}
	dark      = rgb{0x1e, 0x29, 0x3b}
	stripe    = rgb{0xf8, 0xfa, 0xfc}
	rule      = rgb{0xe2, 0xe8, 0xf0}
	white     = rgb{0xff, 0xff, 0xff}
	statusRGB = map[invoice.Status]rgb{
		invoice.StatusDraft:     {0x94, 0xa3, 0xb8},
		invoice.StatusSent:      {0x3b, 0x82, 0xf6},
		invoice.StatusPaid:      {0x22, 0xc5, 0x5e},
		invoice.StatusOverdue:   {0xef, 0x44, 0x44},
		invoice.StatusCancelled: {0x6b, 0x72, 0x80},
	}
)

type layout struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (l *layout) text(c rgb) { l.pdf.SetTextColor(c.r, c.g, c.b) }
func (l *layout) fill(c rgb) { l.pdf.SetFillColor(c.r, c.g, c.b) }
func (l *layout) draw(c rgb) { l.pdf.SetDrawColor(c.r, c.g, c.b) }

func (l *layout) font(style string, size float64) { l.pdf.SetFont(family, style, size) }

// line writes one left or right aligned line at the current position.
func (l *layout) line(x, w float64, s, align string) {
	l.pdf.SetX(x)
	l.pdf.CellFormat(w, lineH, l.tr(s), "", 1, align, false, 0, "")
}

func (l *layout) header(c *company.Company) {
	l.pdf.SetXY(marginX, marginTop)
	l.font("B", 20)
	l.text(ink)
	l.pdf.CellFormat(contentW-headerW, 9, l.tr(c.Name), "", 1, "L", false, 0, "")

	l.font("", 9)
	l.text(muted)
	for _, s := range []string{c.Address, c.Email, c.Phone} {
		if s != "" {
			l.line(marginX, contentW-headerW, s, "L")
		}
	}
	if c.VATNumber != "" {
		l.line(marginX, contentW-headerW, "VAT: "+c.VATNumber, "L")
	}
}

func (l *layout) title(inv *invoice.Invoice) {
	x := rightX - headerW
	l.pdf.SetXY(x, marginTop)
	l.font("B", 20)
	l.text(ink)
	l.pdf.CellFormat(headerW, 9, "INVOICE", "", 1, "R", false, 0, "")

	l.font("", 9)
	l.text(muted)
	l.line(x, headerW, "#"+inv.Number, "R")
	l.line(x, headerW, "Issue Date: "+inv.IssueDate.String(), "R")
	l.line(x, headerW, "Due Date: "+inv.DueDate.String(), "R")
}

func (l *layout) badge(s invoice.Status) {
	label := strings.ToUpper(string(s))
	l.font("B", 8)
	w := l.pdf.GetStringWidth(label) + 6
	y := marginTop + 9 + 3*lineH + 2
	l.fill(statusRGB[s])
	l.text(white)
	l.pdf.SetXY(rightX-w, y)
	l.pdf.CellFormat(w, 6, label, "", 1, "C", true, 0, "")
}

func (l *layout) billTo(c *customer.Customer) {
	l.pdf.SetXY(marginX, 58)
	l.font("B", 9)
	l.text(ink)
	l.line(marginX, contentW/2, "BILL TO", "L")

	l.font("", 9)
	l.text(body)
	for _, s := range []string{c.Name, c.Address, c.Email} {
		if s != "" {
			l.line(marginX, contentW/2, s, "L")
		}
	}
	if c.VATNumber != "" {
		l.line(marginX, contentW/2, "VAT: "+c.VATNumber, "L")
	}
}

func (l *layout) tableHeader(y float64) float64 {
	l.fill(dark)
	l.text(white)
	l.font("B", 8)
	l.pdf.SetXY(marginX, y)
	l.pdf.CellFormat(colDesc, 8, "  DESCRIPTION", "", 0, "L", true, 0, "")
	l.pdf.CellFormat(colQty, 8, "QTY", "", 0, "R", true, 0, "")
	l.pdf.CellFormat(colUnit, 8, "UNIT PRICE", "", 0, "R", true, 0, "")
	l.pdf.CellFormat(colTotal, 8, "TOTAL  ", "", 1, "R", true, 0, "")
	return y + 8
}

func (l *layout) items(inv *invoice.Invoice) {
	y := l.tableHeader(88)

	for i, it := range inv.Items {
		l.font("", 9)
		desc := l.pdf.SplitLines([]byte(l.tr(it.Description)), colDesc-4)
		if len(desc) == 0 {
			desc = [][]byte{nil}
		}
		h := float64(len(desc))*lineH + 2*rowPad

		if y+h > bottomStop {
			l.pdf.AddPage()
			y = l.tableHeader(marginTop)
			l.font("", 9)
		}

		if i%2 == 1 {
			l.fill(stripe)
			l.pdf.Rect(marginX, y, contentW, h, "F")
		}

		l.text(body)
		for j, ln := range desc {
			l.pdf.SetXY(marginX+2, y+rowPad+float64(j)*lineH)
			l.pdf.CellFormat(colDesc-4, lineH, string(ln), "", 0, "L", false, 0, "")
		}
		l.pdf.SetXY(marginX+colDesc, y+rowPad)
		l.pdf.CellFormat(colQty, lineH, it.Quantity.String(), "", 0, "R", false, 0, "")
		l.pdf.CellFormat(colUnit, lineH, l.tr(it.UnitPrice.String()), "", 0, "R", false, 0, "")
		l.pdf.CellFormat(colTotal-2, lineH, l.tr(it.LineTotal.String()), "", 0, "R", false, 0, "")
		y += h
	}
	l.pdf.SetY(y + 4)
}

func (l *layout) totals(inv *invoice.Invoice) {
	const labelW, valueW = 40.0, 30.0
	x := rightX - labelW - valueW
	y := l.pdf.GetY()
	if y+24 > bottomStop {
		l.pdf.AddPage()
		y = marginTop
	}

	l.draw(rule)
	l.pdf.Line(x, y, rightX, y)
	y += 2

	row := func(label, value string) {
		l.pdf.SetXY(x, y)
		l.pdf.CellFormat(labelW, 6, label, "", 0, "R", false, 0, "")
		l.pdf.CellFormat(valueW, 6, l.tr(value), "", 0, "R", false, 0, "")
		y += 6
	}

	l.font("", 9)
	l.text(body)
	row("Subtotal", inv.Subtotal.String())
	row("Tax ("+inv.TaxRate.String()+"%)", inv.TaxAmount.String())

	l.draw(dark)
	l.pdf.Line(x, y+1, rightX, y+1)
	y += 2

	l.font("B", 11)
	l.text(ink)
	row("TOTAL", inv.Total.String())
	l.pdf.SetY(y + 6)
}

func (l *layout) notes(notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	if l.pdf.GetY()+20 > bottomStop {
		l.pdf.AddPage()
	}
	l.pdf.SetX(marginX)
	l.font("B", 9)
	l.text(muted)
	l.pdf.CellFormat(contentW, 6, "NOTES", "", 1, "L", false, 0, "")
	l.font("", 9)
	l.text(body)
	l.pdf.MultiCell(contentW, lineH, l.tr(notes), "", "L", false)
}

func (l *layout) footer() {
	l.pdf.SetXY(marginX, pageH-18)
	l.font("", 8)
	l.text(faint)
	l.pdf.CellFormat(contentW, 5, "Thank you for your business.", "", 0, "C", false, 0, "")
}
