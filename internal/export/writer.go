// Package export turns laid-out pages into PDF bytes and hands them to disk
// or a print spooler.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/goover/docudesk/internal/layout"
)

// Producer is written into the PDF metadata.
const Producer = "docudesk"

// Write renders p with fpdf. The output depends only on p: metadata dates
// come from p.Modified and catalog entries are sorted.
func Write(p *layout.Paged) ([]byte, error) {
	if p == nil || len(p.Pages) == 0 {
		return nil, errors.New("export: nothing to write")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: p.Width, Ht: p.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(p.Modified)
	pdf.SetModificationDate(p.Modified)
	pdf.SetProducer(Producer, false)
	pdf.SetTitle(p.FileName, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	formats := make(map[string]string, len(p.Images))
	for _, img := range p.Images {
		formats[img.Name] = img.Format
		pdf.RegisterImageOptionsReader(img.Name, fpdf.ImageOptions{ImageType: img.Format}, bytes.NewReader(img.Data))
	}

	for _, page := range p.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op := op.(type) {
			case layout.Text:
				pdf.SetFont(layout.FontFamily, string(op.Style), op.Size)
				pdf.SetTextColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.Text(op.X, op.Y, tr(op.Text))
			case layout.Rect:
				pdf.SetFillColor(int(op.Fill.R), int(op.Fill.G), int(op.Fill.B))
				pdf.Rect(op.X, op.Y, op.W, op.H, "F")
			case layout.Line:
				pdf.SetDrawColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.SetLineWidth(op.Width)
				pdf.Line(op.X1, op.Y1, op.X2, op.Y2)
			case layout.Image:
				format, ok := formats[op.Name]
				if !ok {
					return nil, fmt.Errorf("export: image %q not registered", op.Name)
				}
				pdf.ImageOptions(op.Name, op.X, op.Y, op.W, op.H, false, fpdf.ImageOptions{ImageType: format}, 0, "")
			default:
				return nil, fmt.Errorf("export: unsupported op %T", op)
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("export: write pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
