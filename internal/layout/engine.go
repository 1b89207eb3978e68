// Package layout turns a document and the company settings into fixed-size
// A4 pages of absolutely positioned draw operations.
//
// Layout is pure and deterministic: identical inputs (including identical or
// absent images) produce identical pages, which Paged.Fingerprint makes
// checkable. Blocks are placed top to bottom by functions that take a Cursor
// and return the advanced Cursor; nothing is ever drawn above the cursor of
// the page it is on.
package layout

import (
	"errors"
	"fmt"

	"github.com/goover/docudesk/internal/documents"
	"github.com/goover/docudesk/internal/layout/assets"
	"github.com/goover/docudesk/internal/settings"
)

// Page geometry in millimetres.
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 15.0
	ContentWidth = PageWidth - 2*Margin

	// HeaderHeight is the band a letterhead or header image occupies.
	HeaderHeight = 45.0
	// FooterHeight is kept clear at the bottom of every page.
	FooterHeight = 25.0
	// ContentBottom is the lowest y any block may reach.
	ContentBottom = PageHeight - FooterHeight

	// PlainTop is where content starts when no header graphic is drawn,
	// and on every continuation page.
	PlainTop = 20.0
	// BrandedTop is where content starts under a header graphic.
	BrandedTop = HeaderHeight + 5

	// ContinuationMask is the height of the white band painted over a
	// repeated letterhead so its header graphics only show on page one.
	ContinuationMask = 120.0
)

// Brand palette.
var (
	ColorPrimary   = Color{153, 51, 51}
	ColorTextDark  = Color{33, 33, 33}
	ColorTextGray  = Color{100, 100, 100}
	ColorWhite     = Color{255, 255, 255}
	ColorZebra     = Color{249, 249, 249}
	ColorBorder    = Color{230, 230, 230}
	ColorTotalBand = Color{252, 237, 237}
)

// Cursor is the insertion point: a page index and a vertical position on it.
type Cursor struct {
	Page int
	Y    float64
}

// Input is everything a layout depends on.
type Input struct {
	Document documents.Document
	Settings settings.CompanySettings
	Assets   assets.Set
}

// Engine lays out documents. It is safe for concurrent use when its
// Measurer is.
type Engine struct {
	measure Measurer
}

func NewEngine(m Measurer) *Engine {
	return &Engine{measure: m}
}

var errNoMeasurer = errors.New("layout: engine has no measurer")

// Layout paginates in.Document. The only failures are malformed input; a
// missing image is never an error.
func (e *Engine) Layout(in Input) (*Paged, error) {
	if e == nil || e.measure == nil {
		return nil, errNoMeasurer
	}
	switch in.Document.Type {
	case documents.TypeInvoice, documents.TypeQuotation, documents.TypeWaybill:
	default:
		return nil, fmt.Errorf("layout: unknown document type %q", in.Document.Type)
	}

	b := &builder{m: e.measure, doc: in.Document, cs: in.Settings, assets: in.Assets}
	c := b.firstPage()
	c = b.heading(c)
	c = b.itemTable(c)
	c = b.totals(c)
	c = b.payment(c)
	c = b.notes(c)
	b.signature(c)

	return &Paged{
		Width:    PageWidth,
		Height:   PageHeight,
		Pages:    b.pages,
		Images:   in.Assets.Images(),
		FileName: in.Document.FileName(),
		Modified: in.Document.UpdatedAt,
	}, nil
}

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

type font struct {
	style FontStyle
	size  float64
	color Color
}

func (f font) width(m Measurer, s string) float64 {
	return m.TextWidth(s, f.style, f.size)
}

type builder struct {
	m      Measurer
	doc    documents.Document
	cs     settings.CompanySettings
	assets assets.Set
	pages  []Page
}

func (b *builder) emit(c Cursor, op Op) {
	b.pages[c.Page].Ops = append(b.pages[c.Page].Ops, op)
}

// text draws s with its anchor at x: the left edge, the centre or the right
// edge depending on a.
func (b *builder) text(c Cursor, x, y float64, s string, f font, a align) {
	if s == "" {
		return
	}
	switch a {
	case alignCenter:
		x -= f.width(b.m, s) / 2
	case alignRight:
		x -= f.width(b.m, s)
	}
	b.emit(c, Text{X: x, Y: y, Text: s, Style: f.style, Size: f.size, Color: f.color})
}

// firstPage opens page one. A letterhead is drawn full-bleed; failing that a
// header image fills the header band; with neither, content starts at a
// fixed offset.
func (b *builder) firstPage() Cursor {
	b.pages = append(b.pages, Page{})
	c := Cursor{Page: 0, Y: PlainTop}
	switch {
	case b.assets.Letterhead != nil:
		b.emit(c, Image{X: 0, Y: 0, W: PageWidth, H: PageHeight, Name: b.assets.Letterhead.Name})
		c.Y = BrandedTop
	case b.assets.Header != nil:
		b.emit(c, Image{X: 0, Y: 0, W: PageWidth, H: HeaderHeight, Name: b.assets.Header.Name})
		c.Y = BrandedTop
	}
	return c
}

// nextPage opens a continuation page. The letterhead repeats with its header
// graphics masked; a header-only image is not repeated.
func (b *builder) nextPage() Cursor {
	b.pages = append(b.pages, Page{})
	c := Cursor{Page: len(b.pages) - 1, Y: PlainTop}
	if b.assets.Letterhead != nil {
		b.emit(c, Image{X: 0, Y: 0, W: PageWidth, H: PageHeight, Name: b.assets.Letterhead.Name})
		b.emit(c, Rect{X: 0, Y: 0, W: PageWidth, H: ContinuationMask, Fill: ColorWhite})
	}
	return c
}

// fits reports whether a block of height h starting at c stays above the
// footer.
func fits(c Cursor, h float64) bool {
	return c.Y+h <= ContentBottom
}

// reserve moves to a new page unless h more millimetres fit on this one.
func (b *builder) reserve(c Cursor, h float64) Cursor {
	if fits(c, h) {
		return c
	}
	return b.nextPage()
}

// pageCapacity is the usable height of a continuation page.
const pageCapacity = ContentBottom - PlainTop
