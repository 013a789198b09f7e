// Package layout places a billing document onto fixed-size pages.
//
// The engine is synchronous and deterministic: the same document, assets
// and options always produce the same PageSet. It knows nothing about
// the output format; the export package replays the ops onto a PDF.
package layout

// Geometry is the page size and margins in millimetres.
type Geometry struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
}

// A4 is a portrait A4 page with 20mm margins.
func A4() Geometry {
	return Geometry{
		Width:        210,
		Height:       297,
		MarginTop:    20,
		MarginRight:  20,
		MarginBottom: 20,
		MarginLeft:   20,
	}
}

// Top is the first printable y coordinate.
func (g Geometry) Top() float64 { return g.MarginTop }

// Bottom is the last printable y coordinate.
func (g Geometry) Bottom() float64 { return g.Height - g.MarginBottom }

// Left is the first printable x coordinate.
func (g Geometry) Left() float64 { return g.MarginLeft }

// Right is the last printable x coordinate.
func (g Geometry) Right() float64 { return g.Width - g.MarginRight }

// ContentWidth is the printable width.
func (g Geometry) ContentWidth() float64 { return g.Right() - g.Left() }

// PrintableHeight is the printable height of an empty page.
func (g Geometry) PrintableHeight() float64 { return g.Bottom() - g.Top() }

// Section names the part of the document an op belongs to.
type Section string

const (
	SectionHeader    Section = "HEADER"
	SectionRecipient Section = "RECIPIENT"
	SectionItems     Section = "ITEMS_TABLE"
	SectionTotals    Section = "TOTALS"
	SectionExtras    Section = "EXTRAS"
	SectionSignature Section = "SIGNATURE"
	SectionFooter    Section = "FOOTER"
)

const (
	TagTableHeader = "table.header"
	TagItemRow     = "item.row"
	TagRowShade    = "item.shade"
)

type OpKind int

const (
	OpText OpKind = iota
	OpFill
	OpLine
	OpImage
)

type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

type FontStyle string

const (
	StyleRegular FontStyle = ""
	StyleBold    FontStyle = "B"
	StyleItalic  FontStyle = "I"
)

// Font selects a built-in font face.
type Font struct {
	Family string
	Style  FontStyle
	Size   float64
}

// Color is an RGB triple.
type Color struct {
	R, G, B int
}

// Op is one positioned drawing instruction. Text ops describe a box
// (X, Y, W, H) the text is aligned inside; fills and images cover the
// box; lines run from (X, Y) to (X+W, Y+H).
type Op struct {
	Kind    OpKind
	Section Section
	Tag     string
	Row     int

	X, Y, W, H float64

	Text  string
	Font  Font
	Align Align
	Color Color

	Image string
}

// Page is the ordered list of ops drawn on one sheet.
type Page struct {
	Number int
	Ops    []Op
}

// Image is an embedded raster asset referenced by image ops.
type Image struct {
	Name string
	// Type is the gofpdf image type, "PNG" or "JPG".
	Type string
	Data []byte
}

// PageSet is the complete, final content of a rendered document.
type PageSet struct {
	Geometry Geometry
	Title    string
	Author   string
	Subject  string
	Pages    []Page
	Images   map[string]Image
}

// RowPlacement records where a line item landed.
type RowPlacement struct {
	Index  int
	Page   int
	Y      float64
	Height float64
}
