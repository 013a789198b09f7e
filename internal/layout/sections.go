package layout

import (
	"fmt"
	"math"
	"strings"
	"time"

	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/money"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const dateLayout = "January 2, 2006"

var titleCase = cases.Title(language.English)

type column struct {
	title string
	width float64
	align Align
}

func (r *renderer) header() {
	r.section = SectionHeader
	top, left := r.g.Top(), r.g.Left()
	half := r.g.ContentWidth() / 2

	titleHeight := r.s.TitleSize * 0.45
	r.text(left, top, half, titleHeight, strings.ToUpper(r.doc.Kind.Title()),
		r.font(StyleBold, r.s.TitleSize), AlignLeft, r.s.TextColor)

	leftY := top + titleHeight + 2
	for _, line := range r.metaLines() {
		r.text(left, leftY, half, r.s.LineHeight, line, r.body(), AlignLeft, r.s.MutedColor)
		leftY += r.s.LineHeight
	}

	rightY := top
	if logo := r.assets.Logo; logo != nil && len(logo.Data) > 0 {
		name := "logo"
		if logo.Name != "" {
			name = logo.Name
		}
		r.images[name] = Image{Name: name, Type: logo.Type, Data: logo.Data}
		r.emit(Op{
			Kind:  OpImage,
			X:     r.g.Right() - r.s.LogoWidth,
			Y:     top,
			W:     r.s.LogoWidth,
			H:     r.s.LogoHeight,
			Image: name,
		})
		rightY += r.s.LogoHeight + 2
	}
	rightY = r.party(r.doc.Issuer.Data(), left+half, rightY, half, AlignRight)

	r.y = math.Max(leftY, rightY) + r.s.SectionGap/2
	r.rule(r.y)
	r.y += r.s.SectionGap / 2
}

func (r *renderer) metaLines() []string {
	doc := r.doc
	lines := []string{
		fmt.Sprintf("%s No: %s", doc.Kind.Title(), doc.DocumentNumber),
		"Date: " + formatDate(doc.IssueDate),
	}
	switch doc.Kind {
	case documentdomain.KindInvoice:
		if doc.DueDate != nil {
			lines = append(lines, "Due Date: "+formatDate(*doc.DueDate))
		}
		if doc.Status != "" {
			lines = append(lines, "Status: "+titleCase.String(string(doc.Status)))
		}
	case documentdomain.KindReceipt:
		lines = appendLabeled(lines, "Payment Method", doc.PaymentMethod)
		lines = appendLabeled(lines, "Invoice Ref", doc.InvoiceReference)
	case documentdomain.KindDeliveryNote:
		if doc.DeliveryDate != nil {
			lines = append(lines, "Delivery Date: "+formatDate(*doc.DeliveryDate))
		}
		lines = appendLabeled(lines, "Order Ref", doc.OrderReference)
		lines = appendLabeled(lines, "Invoice Ref", doc.InvoiceReference)
	}
	return lines
}

// party writes the non-empty lines of p in a column and returns the y
// below the last line.
func (r *renderer) party(p documentdomain.PartyDetails, x, y, width float64, align Align) float64 {
	if name := strings.TrimSpace(p.Name); name != "" {
		for _, line := range r.wrap(name, r.bold(), width) {
			r.text(x, y, width, r.s.LineHeight, line, r.bold(), align, r.s.TextColor)
			y += r.s.LineHeight
		}
	}
	for _, field := range partyLines(p) {
		for _, line := range r.wrap(field, r.body(), width) {
			r.text(x, y, width, r.s.LineHeight, line, r.body(), align, r.s.TextColor)
			y += r.s.LineHeight
		}
	}
	return y
}

func partyLines(p documentdomain.PartyDetails) []string {
	lines := nonEmpty(strings.Split(p.Address, "\n")...)
	if place := strings.Join(nonEmpty(p.City, p.Country), ", "); place != "" {
		lines = append(lines, place)
	}
	return append(lines, nonEmpty(p.Phone, p.Email)...)
}

func (r *renderer) recipient() {
	r.section = SectionRecipient
	left := r.g.Left()
	half := r.g.ContentWidth() / 2
	headingHeight := r.s.LineHeight + 1
	heading := r.font(StyleBold, r.s.HeadingSize)

	top := r.y
	r.text(left, top, half, headingHeight, recipientLabel(r.doc.Kind), heading, AlignLeft, r.s.TextColor)
	leftY := r.party(r.doc.Recipient.Data(), left, top+headingHeight, half, AlignLeft)

	rightY := top
	if r.doc.Kind == documentdomain.KindDeliveryNote && strings.TrimSpace(r.doc.DeliveryAddress) != "" {
		x := left + half
		r.text(x, top, half, headingHeight, "Delivery Address", heading, AlignLeft, r.s.TextColor)
		rightY += headingHeight
		for _, line := range r.wrap(strings.TrimSpace(r.doc.DeliveryAddress), r.body(), half) {
			r.text(x, rightY, half, r.s.LineHeight, line, r.body(), AlignLeft, r.s.TextColor)
			rightY += r.s.LineHeight
		}
	}

	r.y = math.Max(leftY, rightY) + r.s.SectionGap
}

func recipientLabel(kind documentdomain.Kind) string {
	switch kind {
	case documentdomain.KindReceipt:
		return "Received From"
	case documentdomain.KindDeliveryNote:
		return "Deliver To"
	}
	return "Bill To"
}

func (r *renderer) columns() []column {
	width := r.g.ContentWidth()
	if r.doc.Kind == documentdomain.KindDeliveryNote {
		return []column{
			{title: "Description", width: width - 25 - 55, align: AlignLeft},
			{title: "Quantity", width: 25, align: AlignRight},
			{title: "Notes", width: 55, align: AlignLeft},
		}
	}
	return []column{
		{title: "Description", width: width - 20 - 35 - 35, align: AlignLeft},
		{title: "Qty", width: 20, align: AlignRight},
		{title: "Unit Price", width: 35, align: AlignRight},
		{title: "Amount", width: 35, align: AlignRight},
	}
}

// itemsTable emits the header row once, then one row per item. A row that
// does not fit below the cursor moves to a fresh page.
func (r *renderer) itemsTable() {
	r.section = SectionItems
	cols := r.columns()
	left := r.g.Left()
	pad := r.s.CellPadding

	first := r.cells(r.doc.Items[0], cols)
	r.ensure(r.s.RowHeight + r.rowHeight(first))

	r.fill(left, r.y, r.g.ContentWidth(), r.s.RowHeight, r.s.HeaderFill, TagTableHeader)
	x := left
	for _, col := range cols {
		r.emit(Op{
			Kind:  OpText,
			Tag:   TagTableHeader,
			X:     x + pad,
			Y:     r.y,
			W:     col.width - 2*pad,
			H:     r.s.RowHeight,
			Text:  col.title,
			Font:  r.bold(),
			Align: col.align,
			Color: r.s.HeaderText,
		})
		x += col.width
	}
	r.y += r.s.RowHeight

	for i, item := range r.doc.Items {
		cells := first
		if i > 0 {
			cells = r.cells(item, cols)
		}
		height := r.rowHeight(cells)
		if !r.fits(height) {
			r.addPage()
		}

		if i%2 == 1 {
			r.fill(left, r.y, r.g.ContentWidth(), height, r.s.ShadeFill, TagRowShade)
		}
		x := left
		inset := (r.s.RowHeight - r.s.LineHeight) / 2
		for c, col := range cols {
			for j, line := range cells[c] {
				if line == "" {
					continue
				}
				r.emit(Op{
					Kind:  OpText,
					Tag:   TagItemRow,
					Row:   i,
					X:     x + pad,
					Y:     r.y + inset + float64(j)*r.s.LineHeight,
					W:     col.width - 2*pad,
					H:     r.s.LineHeight,
					Text:  line,
					Font:  r.body(),
					Align: col.align,
					Color: r.s.TextColor,
				})
			}
			x += col.width
		}

		r.rows = append(r.rows, RowPlacement{Index: i, Page: r.pageNumber(), Y: r.y, Height: height})
		r.y += height
	}
	r.y += r.s.SectionGap / 2
}

// cells returns the wrapped lines of every column of an item row. Rows
// taller than a page are truncated.
func (r *renderer) cells(item documentdomain.LineItem, cols []column) [][]string {
	pad := r.s.CellPadding
	out := make([][]string, len(cols))
	out[0] = r.wrap(item.Description, r.body(), cols[0].width-2*pad)
	out[1] = []string{money.FormatQuantity(item.Quantity)}

	if r.doc.Kind == documentdomain.KindDeliveryNote {
		out[2] = []string{""}
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			out[2] = r.wrap(notes, r.body(), cols[2].width-2*pad)
		}
	} else {
		price := 0.0
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		out[2] = []string{r.money(price)}
		out[3] = []string{r.money(money.LineAmount(item))}
	}

	limit := int((r.g.PrintableHeight() - (r.s.RowHeight - r.s.LineHeight)) / r.s.LineHeight)
	for c := range out {
		if len(out[c]) > limit {
			out[c] = out[c][:limit]
		}
	}
	return out
}

func (r *renderer) rowHeight(cells [][]string) float64 {
	lines := 1
	for _, col := range cells {
		lines = max(lines, len(col))
	}
	return math.Max(r.s.RowHeight, float64(lines)*r.s.LineHeight+(r.s.RowHeight-r.s.LineHeight))
}

func (r *renderer) totals() {
	r.section = SectionTotals
	right := r.g.Right()
	step := r.s.LineHeight + 2

	if r.doc.Kind == documentdomain.KindDeliveryNote {
		r.ensure(step + 2)
		r.y += 2
		label := "Total Items: " + money.FormatQuantity(money.SumQuantity(r.doc.Items))
		r.text(right-90, r.y, 90, r.s.LineHeight+1, label, r.bold(), AlignRight, r.s.TextColor)
		r.y += step + r.s.SectionGap/2
		return
	}

	totalLabel := "Total"
	if r.doc.Kind == documentdomain.KindReceipt {
		totalLabel = "Amount Paid"
	}
	rows := []struct {
		label string
		value float64
	}{
		{"Subtotal", r.doc.Subtotal},
		{fmt.Sprintf("Tax (%s%%)", money.FormatQuantity(r.doc.TaxRatePercent)), r.doc.Tax},
		{totalLabel, r.doc.Total},
	}

	r.ensure(2 + float64(len(rows))*step)
	y := r.y + 2
	labelX, valueX := right-90, right-40
	for i, row := range rows {
		font := r.body()
		if i == len(rows)-1 {
			font = r.bold()
			r.emit(Op{Kind: OpLine, X: labelX, Y: y, W: right - labelX, Color: r.s.RuleColor})
			y += 1
		}
		r.text(labelX, y, 50, r.s.LineHeight+1, row.label, font, AlignRight, r.s.TextColor)
		r.text(valueX, y, 40, r.s.LineHeight+1, r.money(row.value), font, AlignRight, r.s.TextColor)
		y += step
	}
	r.y = y + r.s.SectionGap/2
}

// extras writes the free-text blocks. A block that fits on one page is
// kept together; a longer one flows line by line.
func (r *renderer) extras() {
	r.section = SectionExtras
	type block struct{ title, body string }
	var blocks []block
	if r.doc.Kind == documentdomain.KindDeliveryNote {
		blocks = append(blocks, block{"Delivery Instructions", r.doc.DeliveryInstructions})
	}
	blocks = append(blocks, block{"Notes", r.doc.Notes}, block{"Terms & Conditions", r.doc.Terms})

	width := r.g.ContentWidth()
	headingHeight := r.s.LineHeight + 1
	for _, b := range blocks {
		text := strings.TrimSpace(b.body)
		if text == "" {
			continue
		}
		lines := r.wrap(text, r.body(), width)
		height := headingHeight + float64(len(lines))*r.s.LineHeight + 4
		if height <= r.g.PrintableHeight() {
			r.ensure(height)
		} else {
			r.ensure(headingHeight + r.s.LineHeight)
		}

		r.text(r.g.Left(), r.y, width, headingHeight, b.title, r.font(StyleBold, r.s.HeadingSize), AlignLeft, r.s.TextColor)
		r.y += headingHeight
		for _, line := range lines {
			r.ensure(r.s.LineHeight)
			r.text(r.g.Left(), r.y, width, r.s.LineHeight, line, r.body(), AlignLeft, r.s.TextColor)
			r.y += r.s.LineHeight
		}
		r.y += 4
	}
}

func (r *renderer) signature() {
	r.section = SectionSignature
	const height = 30
	r.ensure(height)

	gap := 20.0
	width := (r.g.ContentWidth() - gap) / 2
	lineY := r.y + 15
	for i, label := range []string{"Received By", "Delivered By"} {
		x := r.g.Left() + float64(i)*(width+gap)
		r.emit(Op{Kind: OpLine, X: x, Y: lineY, W: width, Color: r.s.TextColor})
		r.text(x, lineY+1, width, r.s.LineHeight, label, r.bold(), AlignLeft, r.s.TextColor)
		r.text(x, lineY+1+r.s.LineHeight, width, r.s.LineHeight, "Signature / Date",
			r.font(StyleRegular, r.s.SmallSize), AlignLeft, r.s.MutedColor)
	}
	r.y += height
}

// footer is anchored above the bottom margin of the last page. Content
// that reaches into the footer band pushes it onto a new page.
func (r *renderer) footer() {
	r.section = SectionFooter
	top := r.g.Bottom() - r.s.FooterHeight
	if r.y > top {
		r.addPage()
	}
	width := r.g.ContentWidth()
	r.text(r.g.Left(), top+1, width, r.s.LineHeight, "Thank you for your business!",
		r.font(StyleItalic, r.s.BodySize), AlignCenter, r.s.MutedColor)
	r.text(r.g.Left(), top+1+r.s.LineHeight, width, r.s.LineHeight, "Generated by "+r.engine.product,
		r.font(StyleRegular, r.s.SmallSize), AlignCenter, r.s.MutedColor)
	r.y = r.g.Bottom()
}

func (r *renderer) money(amount float64) string {
	return r.engine.formatter.Format(amount, r.doc.Currency)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func appendLabeled(lines []string, label, value string) []string {
	if value = strings.TrimSpace(value); value != "" {
		lines = append(lines, label+": "+value)
	}
	return lines
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
