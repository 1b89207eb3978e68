package layout

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/settings"
)

const (
	columnWidth = ContentWidth/2 - 5
	rightColumn = Margin + columnWidth + 10
	infoLabelX  = rightColumn + 20
	rightEdge   = PageWidth - Margin

	titleOffset      = 35.0
	maxAddressLines  = 6
	signatureWidth   = 40.0
	signatureHeight  = 20.0
	signatureRule    = 50.0
	signatureCaption = "Technical Director"
)

var (
	fontTitle     = font{style: Bold, size: 24, color: ColorPrimary}
	fontCompany   = font{style: Bold, size: 12, color: ColorPrimary}
	fontSmallGray = font{style: Regular, size: 8, color: ColorTextGray}
	fontLabel     = font{style: Regular, size: 10, color: ColorTextGray}
	fontName      = font{style: Bold, size: 11, color: ColorTextDark}
	fontBody      = font{style: Regular, size: 10, color: ColorTextDark}
	fontInfoLabel = font{style: Regular, size: 9, color: ColorTextGray}
	fontInfoValue = font{style: Bold, size: 10, color: ColorTextDark}
	fontSection   = font{style: Bold, size: 9, color: ColorPrimary}
	fontTotalRow  = font{style: Regular, size: 9, color: ColorTextGray}
	fontTotalVal  = font{style: Regular, size: 9, color: ColorTextDark}
	fontGrand     = font{style: Bold, size: 11, color: ColorPrimary}
	fontAccValue  = font{style: Bold, size: 9, color: ColorTextDark}
	fontAccNumber = font{style: Bold, size: 9, color: ColorPrimary}
	fontSignName  = font{style: Bold, size: 10, color: ColorTextDark}
)

// heading draws the company block (text fallback when no header graphic),
// the title, the bill-to column and the document info column. The cursor
// ends below the taller of the two columns.
func (b *builder) heading(c Cursor) Cursor {
	top := c.Y
	if b.assets.Letterhead == nil && b.assets.Header == nil {
		b.company(c)
	}

	b.text(c, rightEdge, top+titleOffset, cases.Upper(language.English).String(string(b.doc.Type)), fontTitle, alignRight)

	// Bill to.
	b.text(c, Margin, top, "BILL TO", fontLabel, alignLeft)
	b.text(c, Margin, top+5, truncate(b.m, b.doc.Customer.Name, fontName, columnWidth), fontName, alignLeft)
	addrY := top + 10
	if addr := strings.TrimSpace(b.doc.Customer.Address); addr != "" {
		lines := wrap(b.m, addr, fontBody, columnWidth)
		if len(lines) > maxAddressLines {
			lines = lines[:maxAddressLines]
			last := lines[maxAddressLines-1] + ellipsis
			lines[maxAddressLines-1] = truncate(b.m, last, fontBody, columnWidth)
		}
		for _, l := range lines {
			b.text(c, Margin, addrY, l, fontBody, alignLeft)
			addrY += 4
		}
	}
	for _, s := range []string{b.doc.Customer.Phone, b.doc.Customer.Email} {
		if s = strings.TrimSpace(s); s != "" {
			b.text(c, Margin, addrY, truncate(b.m, s, fontBody, columnWidth), fontBody, alignLeft)
			addrY += 4
		}
	}

	// Document info.
	infoY := top + titleOffset + 10
	row := func(label, value string) {
		b.text(c, infoLabelX, infoY, label, fontInfoLabel, alignLeft)
		b.text(c, rightEdge, infoY, value, fontInfoValue, alignRight)
		infoY += 6
	}
	row(cases.Title(language.English).String(string(b.doc.Type))+" No:", b.doc.SerialNumber)
	row("Date:", FormatDate(b.doc.CreatedAt))
	if b.doc.DueDate != nil {
		row("Due Date:", FormatDate(*b.doc.DueDate))
	}

	c.Y = max(addrY, infoY) + 15
	return c
}

// company prints the issuer's details right-aligned above the title. It is
// only used when there is no header graphic to carry them.
func (b *builder) company(c Cursor) {
	y := c.Y
	b.text(c, rightEdge, y, truncate(b.m, b.cs.Name, fontCompany, columnWidth), fontCompany, alignRight)
	y += 5
	lines := []string{b.cs.Address, b.cs.Phone, b.cs.Email}
	if b.cs.RegNumber != "" {
		lines = append([]string{"RC: " + b.cs.RegNumber}, lines...)
	}
	for _, l := range lines {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		b.text(c, rightEdge, y, truncate(b.m, l, fontSmallGray, columnWidth), fontSmallGray, alignRight)
		y += 4
	}
}

// totals draws subtotal, tax and the highlighted grand total.
func (b *builder) totals(c Cursor) Cursor {
	const width = colPrice + colAmount + 10
	x := rightEdge - width
	d := b.doc

	c.Y += 5
	b.text(c, x, c.Y, "Subtotal:", fontTotalRow, alignLeft)
	b.text(c, rightEdge, c.Y, FormatAmount(d.Subtotal, d.Currency), fontTotalVal, alignRight)
	c.Y += 6

	b.text(c, x, c.Y, "Tax ("+d.TaxRate.String()+"%):", fontTotalRow, alignLeft)
	b.text(c, rightEdge, c.Y, FormatAmount(d.Tax, d.Currency), fontTotalVal, alignRight)
	c.Y += 8

	b.emit(c, Rect{X: x - 5, Y: c.Y - 6, W: width + 5, H: 10, Fill: ColorTotalBand})
	b.text(c, x, c.Y, "TOTAL:", fontGrand, alignLeft)
	b.text(c, rightEdge, c.Y, FormatAmount(d.Total, d.Currency), fontGrand, alignRight)
	c.Y += 15
	return c
}

type accountRow struct {
	label string
	value string
	f     font
}

func accountRows(a settings.BankAccount) []accountRow {
	rows := []accountRow{
		{"Bank Name:", a.BankName, fontAccValue},
		{"Account Name:", a.AccountName, fontAccValue},
		{"Account No:", a.AccountNumber, fontAccNumber},
	}
	if a.Currency != "" {
		rows = append(rows, accountRow{"Currency:", string(a.Currency), fontAccValue})
	}
	return rows
}

// accountHeight is the vertical advance of one account: 5 mm between rows
// and 8 mm after the last.
func accountHeight(a settings.BankAccount) float64 {
	return float64(len(accountRows(a))-1)*5 + 8
}

const paymentTitleHeight = 10.0

// payment lists every configured bank account. It is drawn for invoices
// only and kept on one page; a list taller than a whole page breaks between
// accounts.
func (b *builder) payment(c Cursor) Cursor {
	if b.doc.Type != documents.TypeInvoice {
		return c
	}
	var accounts []settings.BankAccount
	for _, a := range b.cs.BankAccounts {
		if strings.TrimSpace(a.BankName) != "" || strings.TrimSpace(a.AccountNumber) != "" {
			accounts = append(accounts, a)
		}
	}
	if len(accounts) == 0 {
		return c
	}

	h := paymentTitleHeight
	for _, a := range accounts {
		h += accountHeight(a)
	}
	if h <= pageCapacity {
		c = b.reserve(c, h)
	} else {
		c = b.reserve(c, paymentTitleHeight+accountHeight(accounts[0]))
	}

	b.text(c, Margin, c.Y, "PAYMENT DETAILS", fontSection, alignLeft)
	c.Y += 5
	b.emit(c, Line{X1: Margin, Y1: c.Y, X2: Margin + 40, Y2: c.Y, Width: 0.5, Color: ColorPrimary})
	c.Y += 5

	for _, a := range accounts {
		c = b.reserve(c, accountHeight(a))
		rows := accountRows(a)
		for i, r := range rows {
			b.text(c, Margin, c.Y, r.label, fontInfoLabel, alignLeft)
			b.text(c, Margin+25, c.Y, truncate(b.m, r.value, r.f, ContentWidth-25), r.f, alignLeft)
			if i < len(rows)-1 {
				c.Y += 5
			} else {
				c.Y += 8
			}
		}
	}
	return c
}

// notes prints the free-text notes wrapped to the content width, on a fresh
// page if they do not fit; notes taller than a page continue line by line.
func (b *builder) notes(c Cursor) Cursor {
	text := strings.TrimSpace(b.doc.Notes)
	if text == "" {
		return c
	}
	lines := wrap(b.m, text, fontSmallGray, ContentWidth)
	h := 10 + float64(len(lines))*4
	if h <= pageCapacity {
		c = b.reserve(c, h)
	} else {
		c = b.reserve(c, 14)
	}

	c.Y += 5
	b.text(c, Margin, c.Y, "NOTES", fontSection, alignLeft)
	c.Y += 5
	for _, l := range lines {
		c = b.reserve(c, 4)
		b.text(c, Margin, c.Y, l, fontSmallGray, alignLeft)
		c.Y += 4
	}
	return c
}

// signature draws the signature image (or blank space for a wet signature),
// the rule and the director caption, all on one page.
func (b *builder) signature(c Cursor) Cursor {
	advance := 20.0
	if b.assets.Signature != nil {
		advance = signatureHeight - 8
	}
	name := strings.TrimSpace(b.cs.TechnicalDirectorName)
	text := advance + 5
	if name != "" {
		text += 5
	}
	// The image hangs below the rule, so the block is as tall as whichever
	// reaches further down.
	h := 10 + text
	if b.assets.Signature != nil {
		h = 10 + max(signatureHeight, text)
	}
	c = b.reserve(c, h)
	bottom := c.Y + h

	c.Y += 10
	if b.assets.Signature != nil {
		b.emit(c, Image{X: Margin, Y: c.Y, W: signatureWidth, H: signatureHeight, Name: b.assets.Signature.Name})
	}
	c.Y += advance
	b.emit(c, Line{X1: Margin, Y1: c.Y, X2: Margin + signatureRule, Y2: c.Y, Width: 0.5, Color: ColorTextDark})
	c.Y += 5

	center := Margin + signatureRule/2
	if name != "" {
		b.text(c, center, c.Y, name, fontSignName, alignCenter)
		c.Y += 5
		b.text(c, center, c.Y, signatureCaption, fontInfoLabel, alignCenter)
	} else {
		b.text(c, center, c.Y, signatureCaption, fontSignName, alignCenter)
	}
	c.Y = max(c.Y, bottom)
	return c
}
