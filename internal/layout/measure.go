package layout

import (
	"sync"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// FontFamily is the only face the engine lays out with.
const FontFamily = "Helvetica"

// Measurer reports the rendered width of a single line of text in mm.
type Measurer interface {
	TextWidth(s string, style FontStyle, size float64) float64
}

// FixedMeasurer gives every rune the same advance: Advance mm at 10 pt,
// scaled linearly with the font size.
type FixedMeasurer struct {
	Advance float64
}

func (m FixedMeasurer) TextWidth(s string, _ FontStyle, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * m.Advance * size / 10
}

// PDFMeasurer uses the core-font metrics of the PDF writer, so layout and
// rendering agree on every width. Text is translated to cp1252 first, the
// same way the writer encodes it.
type PDFMeasurer struct {
	mu        sync.Mutex
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func NewPDFMeasurer() *PDFMeasurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &PDFMeasurer{pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *PDFMeasurer) TextWidth(s string, style FontStyle, size float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(FontFamily, string(style), size)
	return m.pdf.GetStringWidth(m.translate(s))
}
