package layout

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goover/docudesk/internal/customers"
	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/layout/assets"
	"github.com/goover/docudesk/internal/settings"
	"github.com/goover/docudesk/internal/shared"
	"github.com/goover/docudesk/internal/totals"
)

// ============================================================================
// FIXTURES
// ============================================================================

var testMeasurer = FixedMeasurer{Advance: 1.8}

func newTestEngine() *Engine {
	return NewEngine(testMeasurer)
}

func testDocument(typ documents.Type, n int) documents.Document {
	items := make([]documents.LineItem, n)
	calc := make([]totals.Item, n)
	for i := range items {
		price := decimal.NewFromInt(int64(100 + i))
		items[i] = documents.LineItem{
			ID:          fmt.Sprintf("item-%d", i),
			Description: fmt.Sprintf("Item %d", i+1),
			Quantity:    int64(i%3 + 1),
			UnitPrice:   price,
			Amount:      totals.LineAmount(int64(i%3+1), price),
		}
		calc[i] = totals.Item{Description: items[i].Description, Quantity: items[i].Quantity, UnitPrice: price}
	}
	rate := decimal.RequireFromString("7.5")
	t := totals.Compute(calc, rate)
	return documents.Document{
		ID:           1,
		SerialNumber: "INV-2025-00042",
		Type:         typ,
		Customer:     customers.Customer{Name: "Acme Ltd", Address: "12 Marina, Lagos", Phone: "0803 000 0000"},
		Items:        items,
		Subtotal:     t.Subtotal,
		Tax:          t.Tax,
		TaxRate:      rate,
		Total:        t.Total,
		Currency:     shared.CurrencyNGN,
		CreatedAt:    time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC),
		Status:       documents.StatusDraft,
	}
}

func image(kind assets.Kind) *assets.Image {
	return &assets.Image{Name: string(kind), Format: "PNG", Data: []byte("img-" + string(kind))}
}

func layoutOf(t *testing.T, doc documents.Document, cs settings.CompanySettings, set assets.Set) *Paged {
	t.Helper()
	p, err := newTestEngine().Layout(Input{Document: doc, Settings: cs, Assets: set})
	require.NoError(t, err)
	return p
}

func texts(p Page) []Text {
	var out []Text
	for _, op := range p.Ops {
		if t, ok := op.(Text); ok {
			out = append(out, t)
		}
	}
	return out
}

func hasText(p Page, s string) bool {
	for _, t := range texts(p) {
		if t.Text == s {
			return true
		}
	}
	return false
}

func countText(p Page, s string) int {
	n := 0
	for _, t := range texts(p) {
		if t.Text == s {
			n++
		}
	}
	return n
}

func rowsOn(p Page) int {
	n := 0
	for _, op := range p.Ops {
		if r, ok := op.(Rect); ok && r.H == RowHeight && r.W == ContentWidth && r.Fill != ColorPrimary {
			n++
		}
	}
	return n
}

func imagesOn(p Page) []Image {
	var out []Image
	for _, op := range p.Ops {
		if img, ok := op.(Image); ok {
			out = append(out, img)
		}
	}
	return out
}

func pageWith(p *Paged, s string) int {
	for i, page := range p.Pages {
		if hasText(page, s) {
			return i
		}
	}
	return -1
}

// ============================================================================
// PAGINATION
// ============================================================================

func TestLayout_SixtyItemsPaginate(t *testing.T) {
	p := layoutOf(t, testDocument(documents.TypeInvoice, 60), settings.Defaults(), assets.Set{})

	// Rows start at y=102 on page one and y=30 on continuation pages; ordinary
	// rows may end at 262, the last row at 232 so the totals follow it.
	require.Len(t, p.Pages, 4)
	var perPage []int
	for _, page := range p.Pages {
		perPage = append(perPage, rowsOn(page))
		assert.Equal(t, 1, countText(page, "DESCRIPTION"), "table header on every page")
	}
	assert.Equal(t, []int{16, 23, 20, 1}, perPage)

	assert.Equal(t, 0, pageWith(p, "Item 1"))
	assert.Equal(t, 0, pageWith(p, "Item 16"))
	assert.Equal(t, 1, pageWith(p, "Item 17"))
	assert.Equal(t, 3, pageWith(p, "Item 60"))
	assert.Equal(t, 3, pageWith(p, "TOTAL:"))
	assert.Equal(t, 0, pageWith(p, "INVOICE"), "title on page one only")
	assert.Equal(t, -1, pageWith(p, "Item 61"))
}

func TestLayout_RowsPerPageProperty(t *testing.T) {
	for _, n := range []int{1, 5, 13, 14, 16, 17, 39, 40, 61, 100} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			p := layoutOf(t, testDocument(documents.TypeQuotation, n), settings.Defaults(), assets.Set{})
			total := 0
			for i, page := range p.Pages {
				rows := rowsOn(page)
				total += rows
				if i == 0 {
					assert.LessOrEqual(t, rows, 16)
				} else if rows > 0 {
					assert.LessOrEqual(t, rows, 23)
					assert.Equal(t, 1, countText(page, "S/N"))
				}
			}
			assert.Equal(t, n, total)
			assert.Equal(t, len(p.Pages)-1, pageWith(p, "Technical Director"))
		})
	}
}

func TestLayout_NothingBelowFooter(t *testing.T) {
	doc := testDocument(documents.TypeInvoice, 45)
	doc.Notes = strings.Repeat("Delivery within five working days of payment. ", 12)
	cs := settings.Defaults()
	cs.TechnicalDirectorName = "Engr. T. Ade"
	p := layoutOf(t, doc, cs, assets.Set{Signature: image(assets.Signature)})

	for i, page := range p.Pages {
		for _, op := range page.Ops {
			switch o := op.(type) {
			case Text:
				assert.LessOrEqual(t, o.Y, ContentBottom, "page %d text %q", i+1, o.Text)
				assert.GreaterOrEqual(t, o.X, 0.0)
			case Rect:
				if o.W == ContentWidth {
					assert.LessOrEqual(t, o.Y+o.H, ContentBottom, "page %d rect", i+1)
				}
			case Line:
				assert.LessOrEqual(t, o.Y2, ContentBottom, "page %d line", i+1)
			}
		}
	}
}

func TestLayout_SignatureImageStaysAboveFooter(t *testing.T) {
	cs := settings.Defaults()
	cs.TechnicalDirectorName = ""
	set := assets.Set{Signature: image(assets.Signature)}

	for items := 1; items <= 20; items++ {
		for lines := 0; lines <= 12; lines++ {
			doc := testDocument(documents.TypeWaybill, items)
			doc.Notes = strings.TrimSuffix(strings.Repeat("Handle with care.\n", lines), "\n")
			p := layoutOf(t, doc, cs, set)

			last := p.Pages[len(p.Pages)-1]
			imgs := imagesOn(last)
			require.Len(t, imgs, 1, "items=%d lines=%d", items, lines)
			assert.LessOrEqual(t, imgs[0].Y+imgs[0].H, ContentBottom, "items=%d lines=%d", items, lines)
			for _, op := range last.Ops {
				if txt, ok := op.(Text); ok && txt.Text == signatureCaption {
					assert.LessOrEqual(t, txt.Y, ContentBottom)
				}
			}
		}
	}
}

// ============================================================================
// ATOMIC BLOCKS
// ============================================================================

func TestLayout_PaymentMovesToFreshPage(t *testing.T) {
	// Thirteen rows end at y=232; the totals end at 266, leaving no room for
	// the payment block.
	p := layoutOf(t, testDocument(documents.TypeInvoice, 13), settings.Defaults(), assets.Set{})
	require.Len(t, p.Pages, 2)
	assert.Equal(t, 0, pageWith(p, "TOTAL:"))
	assert.Equal(t, 1, pageWith(p, "PAYMENT DETAILS"))
	assert.Equal(t, 1, pageWith(p, "Account No:"))
	assert.Equal(t, 1, pageWith(p, "Technical Director"))
	assert.Zero(t, rowsOn(p.Pages[1]))
}

func TestLayout_SignatureIsNeverSplit(t *testing.T) {
	p := layoutOf(t, testDocument(documents.TypeQuotation, 13), settings.Defaults(), assets.Set{})
	require.Len(t, p.Pages, 2)
	sig := p.Pages[1]
	assert.True(t, hasText(sig, "Technical Director"))
	var rule int
	for _, op := range sig.Ops {
		if l, ok := op.(Line); ok && l.X2-l.X1 == signatureRule {
			rule++
		}
	}
	assert.Equal(t, 1, rule, "rule and caption share a page")
}

func TestLayout_NotesStayTogether(t *testing.T) {
	doc := testDocument(documents.TypeQuotation, 10)
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("Note line %d", i))
	}
	doc.Notes = strings.Join(lines, "\n")
	p := layoutOf(t, doc, settings.Defaults(), assets.Set{})

	notesPage := pageWith(p, "NOTES")
	require.GreaterOrEqual(t, notesPage, 0)
	for _, l := range lines {
		assert.Equal(t, notesPage, pageWith(p, l), l)
	}
}

func TestLayout_OversizedNotesContinue(t *testing.T) {
	doc := testDocument(documents.TypeQuotation, 2)
	var lines []string
	for i := 0; i < 150; i++ {
		lines = append(lines, fmt.Sprintf("Clause %03d", i))
	}
	doc.Notes = strings.Join(lines, "\n")
	p := layoutOf(t, doc, settings.Defaults(), assets.Set{})

	prev := -1
	for _, l := range lines {
		page := pageWith(p, l)
		require.GreaterOrEqual(t, page, prev, l)
		prev = page
	}
	assert.Greater(t, prev, 0, "notes spill onto later pages")
}

// ============================================================================
// BLOCK CONTENT
// ============================================================================

func TestLayout_PaymentOnlyForInvoices(t *testing.T) {
	cs := settings.Defaults()
	cs.BankAccounts = append(cs.BankAccounts, settings.BankAccount{
		BankName: "Access Bank", AccountName: "GOOVEREVERYTHING", AccountNumber: "0099887766", Currency: shared.CurrencyUSD,
	})

	inv := layoutOf(t, testDocument(documents.TypeInvoice, 2), cs, assets.Set{})
	page := inv.Pages[len(inv.Pages)-1]
	assert.True(t, hasText(page, "PAYMENT DETAILS"))
	assert.True(t, hasText(page, "XXXXXXXXXX"))
	assert.True(t, hasText(page, "0099887766"))
	assert.True(t, hasText(page, "USD"))
	assert.Equal(t, 2, countText(page, "Currency:"))

	for _, typ := range []documents.Type{documents.TypeQuotation, documents.TypeWaybill} {
		p := layoutOf(t, testDocument(typ, 2), cs, assets.Set{})
		assert.Equal(t, -1, pageWith(p, "PAYMENT DETAILS"), typ)
	}

	cs.BankAccounts = nil
	none := layoutOf(t, testDocument(documents.TypeInvoice, 2), cs, assets.Set{})
	assert.Equal(t, -1, pageWith(none, "PAYMENT DETAILS"))
}

func TestLayout_HeadingAndTotals(t *testing.T) {
	doc := testDocument(documents.TypeInvoice, 2)
	due := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	doc.DueDate = &due
	p := layoutOf(t, doc, settings.Defaults(), assets.Set{})
	first := p.Pages[0]

	for _, s := range []string{
		"INVOICE", "Invoice No:", "INV-2025-00042", "Date:", "2 May 2025", "Due Date:", "1 June 2025",
		"BILL TO", "Acme Ltd", "12 Marina, Lagos", "0803 000 0000",
		"GOOVEREVERYTHING", "Subtotal:", "Tax (7.5%):", "TOTAL:",
		FormatAmount(doc.Total, doc.Currency),
	} {
		assert.True(t, hasText(first, s), "missing %q", s)
	}

	q := testDocument(documents.TypeWaybill, 1)
	assert.True(t, hasText(layoutOf(t, q, settings.Defaults(), assets.Set{}).Pages[0], "Waybill No:"))
}

func TestLayout_RightAlignedAmounts(t *testing.T) {
	doc := testDocument(documents.TypeInvoice, 1)
	p := layoutOf(t, doc, settings.Defaults(), assets.Set{})
	amount := FormatAmount(doc.Items[0].Amount, doc.Currency)
	for _, tx := range texts(p.Pages[0]) {
		if tx.Text == amount && tx.Style == Bold && tx.Size == 9 {
			right := tx.X + testMeasurer.TextWidth(tx.Text, tx.Style, tx.Size)
			assert.InDelta(t, xAmount+colAmount-cellPad, right, 1e-9)
			return
		}
	}
	t.Fatalf("amount cell %q not found", amount)
}

func TestLayout_DescriptionTruncated(t *testing.T) {
	doc := testDocument(documents.TypeInvoice, 1)
	doc.Items[0].Description = strings.Repeat("Heavy duty galvanised steel bracket ", 6)
	p := layoutOf(t, doc, settings.Defaults(), assets.Set{})

	for _, tx := range texts(p.Pages[0]) {
		if tx.X == xDesc+cellPad && tx.Size == 9 {
			assert.True(t, strings.HasSuffix(tx.Text, "..."), tx.Text)
			assert.True(t, strings.HasPrefix(tx.Text, "Heavy duty"))
			assert.LessOrEqual(t, testMeasurer.TextWidth(tx.Text, tx.Style, tx.Size), colDesc-2*cellPad)
			return
		}
	}
	t.Fatal("description cell not found")
}

// ============================================================================
// BRANDING POLICY
// ============================================================================

func TestLayout_LetterheadRepeatsMasked(t *testing.T) {
	p := layoutOf(t, testDocument(documents.TypeInvoice, 40), settings.Defaults(), assets.Set{Letterhead: image(assets.Letterhead)})
	require.Greater(t, len(p.Pages), 1)

	for i, page := range p.Pages {
		imgs := imagesOn(page)
		require.NotEmpty(t, imgs, "page %d", i+1)
		assert.Equal(t, Image{X: 0, Y: 0, W: PageWidth, H: PageHeight, Name: "letterhead"}, imgs[0])
		assert.Equal(t, imgs[0], page.Ops[0], "background drawn first")
		if i > 0 {
			assert.Equal(t, Rect{X: 0, Y: 0, W: PageWidth, H: ContinuationMask, Fill: ColorWhite}, page.Ops[1])
		}
	}
	assert.False(t, hasText(p.Pages[0], "GOOVEREVERYTHING"), "letterhead carries the company details")
	assert.Equal(t, 13, rowsOn(p.Pages[0]), "content starts below the header band")
	assert.Len(t, p.Images, 1)
}

func TestLayout_HeaderOnlyOnFirstPage(t *testing.T) {
	p := layoutOf(t, testDocument(documents.TypeInvoice, 40), settings.Defaults(), assets.Set{Header: image(assets.Header)})
	require.Greater(t, len(p.Pages), 1)

	assert.Equal(t, []Image{{X: 0, Y: 0, W: PageWidth, H: HeaderHeight, Name: "header"}}, imagesOn(p.Pages[0]))
	for _, page := range p.Pages[1:] {
		assert.Empty(t, imagesOn(page))
	}
}

func TestLayout_NoAssetsFallsBack(t *testing.T) {
	p := layoutOf(t, testDocument(documents.TypeInvoice, 3), settings.Defaults(), assets.Set{})
	for _, page := range p.Pages {
		assert.Empty(t, imagesOn(page))
	}
	first := p.Pages[0]
	assert.True(t, hasText(first, "GOOVEREVERYTHING"))
	for _, tx := range texts(first) {
		if tx.Text == "BILL TO" {
			assert.Equal(t, PlainTop, tx.Y)
		}
	}
	assert.Empty(t, p.Images)
}

func TestLayout_SignatureImage(t *testing.T) {
	cs := settings.Defaults()
	cs.TechnicalDirectorName = "Engr. T. Ade"
	p := layoutOf(t, testDocument(documents.TypeQuotation, 2), cs, assets.Set{Signature: image(assets.Signature)})
	last := p.Pages[len(p.Pages)-1]

	imgs := imagesOn(last)
	require.Len(t, imgs, 1)
	assert.Equal(t, "signature", imgs[0].Name)
	assert.Equal(t, signatureWidth, imgs[0].W)
	assert.True(t, hasText(last, "Engr. T. Ade"))
	assert.True(t, hasText(last, "Technical Director"))
}

// ============================================================================
// DETERMINISM
// ============================================================================

func TestLayout_Idempotent(t *testing.T) {
	doc := testDocument(documents.TypeInvoice, 60)
	doc.Notes = "Thank you for your business."
	set := assets.Set{Letterhead: image(assets.Letterhead), Signature: image(assets.Signature)}

	a := layoutOf(t, doc, settings.Defaults(), set)
	b := layoutOf(t, doc, settings.Defaults(), set)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)

	doc.Items[59].Description = "Item sixty"
	c := layoutOf(t, doc, settings.Defaults(), set)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	other := assets.Set{Letterhead: &assets.Image{Name: "letterhead", Format: "PNG", Data: []byte("different")}, Signature: set.Signature}
	doc.Items[59].Description = "Item 60"
	d := layoutOf(t, doc, settings.Defaults(), other)
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint(), "image bytes are part of the fingerprint")
}

func TestLayout_RejectsUnknownType(t *testing.T) {
	doc := testDocument("receipt", 1)
	_, err := newTestEngine().Layout(Input{Document: doc, Settings: settings.Defaults()})
	assert.Error(t, err)

	_, err = NewEngine(nil).Layout(Input{Document: testDocument(documents.TypeInvoice, 1)})
	assert.Error(t, err)
}

func TestLayout_FileName(t *testing.T) {
	p := layoutOf(t, testDocument(documents.TypeInvoice, 1), settings.Defaults(), assets.Set{})
	assert.Equal(t, "invoice-INV-2025-00042.pdf", p.FileName)
	assert.Equal(t, PageWidth, p.Width)
}
