// Package builder assembles canonical document records from form input.
package builder

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/smallbiznis/bytebills/internal/clock"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/money"
	"gorm.io/datatypes"
)

// Builder turns validated form values into a Document. Totals are always
// recomputed; caller-supplied amounts are never trusted.
type Builder struct {
	clock     clock.Clock
	suffix    func() int
	formatter *money.Formatter
}

type Option func(*Builder)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// WithSuffixSource overrides the random document-number suffix.
func WithSuffixSource(fn func() int) Option {
	return func(b *Builder) { b.suffix = fn }
}

// WithDefaultCurrency sets the currency used when the form has none or an
// unknown one.
func WithDefaultCurrency(code string) Option {
	return func(b *Builder) { b.formatter = money.NewFormatter(money.DefaultLocale, code) }
}

func New(opts ...Option) *Builder {
	b := &Builder{
		clock:     clock.NewSystemClock(),
		suffix:    func() int { return rand.IntN(10000) },
		formatter: money.NewFormatter(money.DefaultLocale, money.DefaultCurrency),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewDocumentNumber formats PREFIX-YYMM-NNNN.
func NewDocumentNumber(kind documentdomain.Kind, at time.Time, suffix int) string {
	if suffix < 0 {
		suffix = -suffix
	}
	return fmt.Sprintf("%s-%s-%04d", kind.NumberPrefix(), at.Format("0601"), suffix%10000)
}

// Build creates a new document when previous is nil and rebuilds previous
// otherwise, keeping its identity, ownership, number, status and
// creation time.
func (b *Builder) Build(
	kind documentdomain.Kind,
	form documentdomain.FormValues,
	company *companydomain.Company,
	previous *documentdomain.Document,
) (documentdomain.Document, error) {
	if !kind.Valid() {
		return documentdomain.Document{}, documentdomain.ErrInvalidKind
	}
	if previous != nil && previous.Kind != kind {
		return documentdomain.Document{}, documentdomain.ErrInvalidKind
	}
	if len(form.Items) == 0 {
		return documentdomain.Document{}, documentdomain.ErrNoLineItems
	}
	if company == nil {
		return documentdomain.Document{}, documentdomain.ErrCompanyRequired
	}

	now := b.clock.Now().UTC()
	currency := b.formatter.Code(form.Currency)

	items := normalizeItems(kind, form.Items)
	taxRate := form.TaxRatePercent
	if kind == documentdomain.KindDeliveryNote {
		taxRate = 0
	}
	totals := money.RoundTotals(money.Compute(items, taxRate), currency)

	doc := documentdomain.Document{
		Kind:           kind,
		Issuer:         datatypes.NewJSONType(Snapshot(company)),
		Recipient:      datatypes.NewJSONType(trimParty(form.Recipient)),
		Items:          datatypes.JSONSlice[documentdomain.LineItem](items),
		Currency:       currency,
		TaxRatePercent: taxRate,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		Notes:          strings.TrimSpace(form.Notes),
		Terms:          strings.TrimSpace(form.Terms),
		UpdatedAt:      now,
	}

	switch kind {
	case documentdomain.KindInvoice:
		doc.DueDate = utcPtr(form.DueDate)
	case documentdomain.KindReceipt:
		doc.PaymentMethod = strings.TrimSpace(form.PaymentMethod)
		doc.InvoiceReference = strings.TrimSpace(form.InvoiceReference)
	case documentdomain.KindDeliveryNote:
		doc.DeliveryDate = utcPtr(form.DeliveryDate)
		doc.DeliveryAddress = strings.TrimSpace(form.DeliveryAddress)
		doc.InvoiceReference = strings.TrimSpace(form.InvoiceReference)
		doc.OrderReference = strings.TrimSpace(form.OrderReference)
		doc.DeliveryInstructions = strings.TrimSpace(form.DeliveryInstructions)
	}

	if previous == nil {
		doc.DocumentNumber = NewDocumentNumber(kind, now, b.suffix())
		doc.CreatedAt = now
		doc.Version = 1
		doc.IssueDate = now
		if kind == documentdomain.KindInvoice {
			doc.Status = documentdomain.StatusPending
		}
	} else {
		doc.ID = previous.ID
		doc.OwnerID = previous.OwnerID
		doc.DocumentNumber = previous.DocumentNumber
		doc.CreatedAt = previous.CreatedAt
		doc.Status = previous.Status
		doc.Version = previous.Version
		doc.IssueDate = previous.IssueDate
	}
	if form.IssueDate != nil && !form.IssueDate.IsZero() {
		doc.IssueDate = form.IssueDate.UTC()
	}

	return doc, nil
}

// Renumber assigns a fresh document number, used after a collision.
func (b *Builder) Renumber(doc *documentdomain.Document) {
	doc.DocumentNumber = NewDocumentNumber(doc.Kind, doc.CreatedAt, b.suffix())
}

// Snapshot copies the company's printable fields into a party value.
func Snapshot(company *companydomain.Company) documentdomain.PartyDetails {
	if company == nil {
		return documentdomain.PartyDetails{}
	}
	return trimParty(documentdomain.PartyDetails{
		Name:    company.Name,
		Address: company.Address,
		City:    company.City,
		Country: company.Country,
		Phone:   company.Phone,
		Email:   company.Email,
		Logo:    company.LogoURL,
	})
}

func normalizeItems(kind documentdomain.Kind, in []documentdomain.LineItem) []documentdomain.LineItem {
	out := make([]documentdomain.LineItem, 0, len(in))
	for _, item := range in {
		line := documentdomain.LineItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
		}
		if kind == documentdomain.KindDeliveryNote {
			line.Notes = strings.TrimSpace(item.Notes)
		} else if item.UnitPrice != nil {
			price := *item.UnitPrice
			line.UnitPrice = &price
		} else {
			zero := 0.0
			line.UnitPrice = &zero
		}
		out = append(out, line)
	}
	return out
}

func trimParty(p documentdomain.PartyDetails) documentdomain.PartyDetails {
	return documentdomain.PartyDetails{
		Name:    strings.TrimSpace(p.Name),
		Address: strings.TrimSpace(p.Address),
		City:    strings.TrimSpace(p.City),
		Country: strings.TrimSpace(p.Country),
		Phone:   strings.TrimSpace(p.Phone),
		Email:   strings.TrimSpace(p.Email),
		Logo:    strings.TrimSpace(p.Logo),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
