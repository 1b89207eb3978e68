package layout

import (
	"strconv"
)

// Item table geometry.
const (
	colSN     = 12.0
	colQty    = 15.0
	colPrice  = 35.0
	colAmount = 35.0
	colDesc   = ContentWidth - (colSN + colQty + colPrice + colAmount)

	xSN     = Margin
	xDesc   = xSN + colSN
	xQty    = xDesc + colDesc
	xPrice  = xQty + colQty
	xAmount = xPrice + colPrice

	cellPad = 2.0

	tableHeaderHeight = 10.0
	RowHeight         = 10.0

	// rowSafety is kept free below ordinary rows.
	rowSafety = 10.0
	// totalsReserve is kept free below the last row so the totals block
	// lands on the same page as it.
	totalsReserve = 40.0
)

var (
	fontTableHeader = font{style: Bold, size: 8, color: ColorWhite}
	fontCell        = font{style: Regular, size: 9, color: ColorTextDark}
	fontCellBold    = font{style: Bold, size: 9, color: ColorTextDark}
)

func (b *builder) tableHeader(c Cursor) Cursor {
	b.emit(c, Rect{X: Margin, Y: c.Y, W: ContentWidth, H: tableHeaderHeight, Fill: ColorPrimary})
	y := c.Y + 6.5
	b.text(c, xSN+colSN/2, y, "S/N", fontTableHeader, alignCenter)
	b.text(c, xDesc+cellPad, y, "DESCRIPTION", fontTableHeader, alignLeft)
	b.text(c, xQty+colQty/2, y, "QTY", fontTableHeader, alignCenter)
	b.text(c, xPrice+colPrice-cellPad, y, "UNIT PRICE", fontTableHeader, alignRight)
	b.text(c, xAmount+colAmount-cellPad, y, "AMOUNT", fontTableHeader, alignRight)
	c.Y += tableHeaderHeight
	return c
}

// rowLimit is the lowest y the bottom of row i may reach.
func rowLimit(i, n int) float64 {
	if i == n-1 {
		return ContentBottom - totalsReserve
	}
	return ContentBottom - rowSafety
}

// itemTable draws the header and one zebra-striped row per item, starting a
// new page (with the header repeated) whenever the next row would cross its
// limit.
func (b *builder) itemTable(c Cursor) Cursor {
	c = b.tableHeader(c)
	items := b.doc.Items
	for i, it := range items {
		if c.Y+RowHeight > rowLimit(i, len(items)) {
			c = b.nextPage()
			c = b.tableHeader(c)
		}

		fill := ColorWhite
		if i%2 == 1 {
			fill = ColorZebra
		}
		b.emit(c, Rect{X: Margin, Y: c.Y, W: ContentWidth, H: RowHeight, Fill: fill})

		y := c.Y + 6
		b.text(c, xSN+colSN/2, y, strconv.Itoa(i+1), fontCell, alignCenter)
		b.text(c, xDesc+cellPad, y, truncate(b.m, it.Description, fontCell, colDesc-2*cellPad), fontCell, alignLeft)
		b.text(c, xQty+colQty/2, y, strconv.FormatInt(it.Quantity, 10), fontCell, alignCenter)
		b.text(c, xPrice+colPrice-cellPad, y, FormatAmount(it.UnitPrice, b.doc.Currency), fontCell, alignRight)
		b.text(c, xAmount+colAmount-cellPad, y, FormatAmount(it.Amount, b.doc.Currency), fontCellBold, alignRight)

		b.emit(c, Line{X1: Margin, Y1: c.Y + RowHeight, X2: PageWidth - Margin, Y2: c.Y + RowHeight, Width: 0.1, Color: ColorBorder})
		c.Y += RowHeight
	}
	return c
}
