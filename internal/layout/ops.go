package layout

import (
	"encoding/hex"
	"fmt"
	"hash"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/goover/docudesk/internal/layout/assets"
)

// Color is an RGB fill, stroke or text color.
type Color struct{ R, G, B uint8 }

// FontStyle selects the Helvetica face.
type FontStyle string

const (
	Regular FontStyle = ""
	Bold    FontStyle = "B"
)

// Op is one absolutely positioned draw instruction. Coordinates are
// millimetres from the top-left corner of the page.
type Op interface {
	encode(h hash.Hash)
}

// Text draws a single line. Y is the baseline; X is the left edge after
// alignment has been resolved.
type Text struct {
	X, Y  float64
	Text  string
	Style FontStyle
	Size  float64
	Color Color
}

// Rect is a filled rectangle.
type Rect struct {
	X, Y, W, H float64
	Fill       Color
}

// Line is a stroked segment.
type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          Color
}

// Image places a loaded asset, referenced by name.
type Image struct {
	X, Y, W, H float64
	Name       string
}

func (t Text) encode(h hash.Hash) {
	fmt.Fprintf(h, "T %.3f %.3f %q %s %.2f %d,%d,%d\n", t.X, t.Y, t.Text, t.Style, t.Size, t.Color.R, t.Color.G, t.Color.B)
}

func (r Rect) encode(h hash.Hash) {
	fmt.Fprintf(h, "R %.3f %.3f %.3f %.3f %d,%d,%d\n", r.X, r.Y, r.W, r.H, r.Fill.R, r.Fill.G, r.Fill.B)
}

func (l Line) encode(h hash.Hash) {
	fmt.Fprintf(h, "L %.3f %.3f %.3f %.3f %.2f %d,%d,%d\n", l.X1, l.Y1, l.X2, l.Y2, l.Width, l.Color.R, l.Color.G, l.Color.B)
}

func (i Image) encode(h hash.Hash) {
	fmt.Fprintf(h, "I %.3f %.3f %.3f %.3f %q\n", i.X, i.Y, i.W, i.H, i.Name)
}

// Page is the ordered op list of one page.
type Page struct {
	Ops []Op
}

// Paged is the engine's output: fixed-size pages plus the images they
// reference. It is consumed by the PDF writer.
type Paged struct {
	Width, Height float64
	Pages         []Page
	Images        []*assets.Image
	// FileName is the suggested artifact name, <type>-<serial>.pdf.
	FileName string
	// Modified is written as the PDF creation and modification date.
	Modified time.Time
}

// Fingerprint is a blake2b-256 digest of the canonical encoding of every
// page and every referenced image. Two layouts with the same fingerprint
// draw identical content.
func (p *Paged) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "paged %.3f %.3f %d %q %d\n", p.Width, p.Height, len(p.Pages), p.FileName, p.Modified.Unix())
	for i, page := range p.Pages {
		fmt.Fprintf(h, "page %d %d\n", i+1, len(page.Ops))
		for _, op := range page.Ops {
			op.encode(h)
		}
	}
	for _, img := range p.Images {
		sum := blake2b.Sum256(img.Data)
		fmt.Fprintf(h, "image %q %s %x\n", img.Name, img.Format, sum)
	}
	return hex.EncodeToString(h.Sum(nil))
}
