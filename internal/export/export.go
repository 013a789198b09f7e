// Package export serializes a laid-out PageSet to PDF and hands the bytes
// to a destination.
package export

import (
	"bytes"
	"sort"

	"github.com/jung-kurt/gofpdf"
	"github.com/smallbiznis/bytebills/internal/layout"
	"go.uber.org/zap"
)

const creator = "ByteBills"

// Exporter replays layout ops onto a gofpdf document.
type Exporter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Exporter {
	return &Exporter{log: log.Named("export")}
}

// Export renders ps into an in-memory PDF. Images that cannot be decoded
// are dropped with a warning and the rest of the page is still drawn.
func (e *Exporter) Export(ps layout.PageSet) (*bytes.Buffer, error) {
	if len(ps.Pages) == 0 {
		return nil, ErrEmptyPageSet
	}

	g := ps.Geometry
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetMargins(g.MarginLeft, g.MarginTop, g.MarginRight)
	pdf.SetAutoPageBreak(false, g.MarginBottom)
	pdf.SetTitle(ps.Title, true)
	pdf.SetAuthor(ps.Author, true)
	pdf.SetSubject(ps.Subject, true)
	pdf.SetCreator(creator, true)

	images := e.registerImages(pdf, ps.Images)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range ps.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op.Kind {
			case layout.OpText:
				pdf.SetFont(op.Font.Family, string(op.Font.Style), op.Font.Size)
				pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.SetXY(op.X, op.Y)
				pdf.CellFormat(op.W, op.H, tr(op.Text), "", 0, string(op.Align), false, 0, "")
			case layout.OpFill:
				pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.Rect(op.X, op.Y, op.W, op.H, "F")
			case layout.OpLine:
				pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.SetLineWidth(0.2)
				pdf.Line(op.X, op.Y, op.X+op.W, op.Y+op.H)
			case layout.OpImage:
				img, ok := images[op.Image]
				if !ok {
					continue
				}
				pdf.ImageOptions(img.Name, op.X, op.Y, op.W, op.H, false,
					gofpdf.ImageOptions{ImageType: img.Type}, 0, "")
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (e *Exporter) registerImages(pdf *gofpdf.Fpdf, images map[string]layout.Image) map[string]layout.Image {
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)

	registered := make(map[string]layout.Image, len(images))
	for _, name := range names {
		img := images[name]
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: img.Type}, bytes.NewReader(img.Data))
		if err := pdf.Error(); err != nil {
			e.log.Warn("dropping undecodable image", zap.String("image", name), zap.Error(err))
			pdf.ClearError()
			continue
		}
		img.Name = name
		registered[name] = img
	}
	return registered
}
