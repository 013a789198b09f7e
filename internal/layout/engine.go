package layout

import (
	"errors"
	"fmt"

	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/money"
)

// ErrMalformedDocument is returned for documents that cannot be laid out:
// nil, an unknown kind, or no line items.
var ErrMalformedDocument = errors.New("malformed_document")

const DefaultProduct = "ByteBills"

// Style holds the typographic constants of the layout, in millimetres and
// points.
type Style struct {
	FontFamily  string
	TitleSize   float64
	HeadingSize float64
	BodySize    float64
	SmallSize   float64

	LineHeight   float64
	RowHeight    float64
	CellPadding  float64
	SectionGap   float64
	FooterHeight float64
	LogoWidth    float64
	LogoHeight   float64

	TextColor  Color
	MutedColor Color
	RuleColor  Color
	HeaderFill Color
	HeaderText Color
	ShadeFill  Color
}

func DefaultStyle() Style {
	return Style{
		FontFamily:   "Helvetica",
		TitleSize:    22,
		HeadingSize:  11,
		BodySize:     10,
		SmallSize:    8,
		LineHeight:   5,
		RowHeight:    8,
		CellPadding:  2,
		SectionGap:   8,
		FooterHeight: 12,
		LogoWidth:    35,
		LogoHeight:   15,
		TextColor:    Color{33, 37, 41},
		MutedColor:   Color{108, 117, 125},
		RuleColor:    Color{206, 212, 218},
		HeaderFill:   Color{52, 58, 64},
		HeaderText:   Color{255, 255, 255},
		ShadeFill:    Color{245, 245, 245},
	}
}

// Assets are optional binary inputs fetched before layout.
type Assets struct {
	Logo *Image
}

// Result is the laid-out document plus where each item row landed.
type Result struct {
	PageSet PageSet
	Rows    []RowPlacement
}

// PageCount returns the number of pages produced.
func (r *Result) PageCount() int { return len(r.PageSet.Pages) }

type Option func(*Engine)

func WithGeometry(g Geometry) Option { return func(e *Engine) { e.geometry = g } }

func WithMeasurer(m Measurer) Option { return func(e *Engine) { e.measurer = m } }

func WithFormatter(f *money.Formatter) Option { return func(e *Engine) { e.formatter = f } }

func WithStyle(s Style) Option { return func(e *Engine) { e.style = s } }

// WithProduct sets the name printed in the footer attribution.
func WithProduct(name string) Option { return func(e *Engine) { e.product = name } }

// Engine lays out documents. It is safe for concurrent use when its
// Measurer is.
type Engine struct {
	geometry  Geometry
	measurer  Measurer
	formatter *money.Formatter
	style     Style
	product   string
}

func New(opts ...Option) *Engine {
	e := &Engine{
		geometry: A4(),
		style:    DefaultStyle(),
		product:  DefaultProduct,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.measurer == nil {
		e.measurer = NewPDFMeasurer()
	}
	if e.formatter == nil {
		e.formatter = money.NewFormatter(money.DefaultLocale, money.DefaultCurrency)
	}
	return e
}

// Geometry returns the page geometry the engine lays out on.
func (e *Engine) Geometry() Geometry { return e.geometry }

// Style returns the engine's typographic constants.
func (e *Engine) Style() Style { return e.style }

// Render lays doc out section by section: header, recipient, items table,
// totals, extras, signature (delivery notes only) and footer. Header and
// recipient only ever appear on the first page.
func (e *Engine) Render(doc *documentdomain.Document, assets Assets) (*Result, error) {
	if doc == nil || !doc.Kind.Valid() || len(doc.Items) == 0 {
		return nil, ErrMalformedDocument
	}

	r := &renderer{
		engine: e,
		doc:    doc,
		assets: assets,
		g:      e.geometry,
		s:      e.style,
		images: map[string]Image{},
	}
	r.addPage()

	r.header()
	r.recipient()
	r.itemsTable()
	r.totals()
	r.extras()
	if doc.Kind == documentdomain.KindDeliveryNote {
		r.signature()
	}
	r.footer()

	issuer := doc.Issuer.Data()
	return &Result{
		PageSet: PageSet{
			Geometry: e.geometry,
			Title:    fmt.Sprintf("%s %s", doc.Kind.Title(), doc.DocumentNumber),
			Author:   issuer.Name,
			Subject:  doc.Kind.Title(),
			Pages:    r.pages,
			Images:   r.images,
		},
		Rows: r.rows,
	}, nil
}

type renderer struct {
	engine *Engine
	doc    *documentdomain.Document
	assets Assets
	g      Geometry
	s      Style

	pages   []Page
	images  map[string]Image
	rows    []RowPlacement
	section Section
	y       float64
}

func (r *renderer) addPage() {
	r.pages = append(r.pages, Page{Number: len(r.pages) + 1})
	r.y = r.g.Top()
}

func (r *renderer) pageNumber() int { return len(r.pages) }

func (r *renderer) fits(h float64) bool { return r.y+h <= r.g.Bottom() }

// ensure starts a new page when h does not fit below the cursor.
func (r *renderer) ensure(h float64) {
	if !r.fits(h) {
		r.addPage()
	}
}

func (r *renderer) emit(op Op) {
	op.Section = r.section
	page := &r.pages[len(r.pages)-1]
	page.Ops = append(page.Ops, op)
}

func (r *renderer) font(style FontStyle, size float64) Font {
	return Font{Family: r.s.FontFamily, Style: style, Size: size}
}

func (r *renderer) body() Font { return r.font(StyleRegular, r.s.BodySize) }

func (r *renderer) bold() Font { return r.font(StyleBold, r.s.BodySize) }

func (r *renderer) text(x, y, w, h float64, s string, font Font, align Align, color Color) {
	if s == "" {
		return
	}
	r.emit(Op{Kind: OpText, X: x, Y: y, W: w, H: h, Text: s, Font: font, Align: align, Color: color})
}

func (r *renderer) fill(x, y, w, h float64, color Color, tag string) {
	r.emit(Op{Kind: OpFill, Tag: tag, X: x, Y: y, W: w, H: h, Color: color})
}

func (r *renderer) rule(y float64) {
	r.emit(Op{Kind: OpLine, X: r.g.Left(), Y: y, W: r.g.ContentWidth(), Color: r.s.RuleColor})
}

func (r *renderer) wrap(s string, font Font, width float64) []string {
	return wrap(r.engine.measurer, s, font, width)
}
