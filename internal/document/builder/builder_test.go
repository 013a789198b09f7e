package builder

import (
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/clock"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 { return &v }

func testCompany() *companydomain.Company {
	return &companydomain.Company{
		ID:      1,
		OwnerID: "user-a",
		Name:    "  Acme Supplies ",
		Address: "1 Market St",
		City:    "Springfield",
		LogoURL: "https://cdn.example.com/logos/acme.png",
	}
}

func testForm() documentdomain.FormValues {
	return documentdomain.FormValues{
		Recipient: documentdomain.PartyDetails{Name: "Globex"},
		Items: []documentdomain.LineItem{
			{Description: "Widget", Quantity: 2, UnitPrice: price(50)},
			{Description: "Gadget", Quantity: 1, UnitPrice: price(25)},
		},
		Currency:       "usd",
		TaxRatePercent: 10,
	}
}

func newTestBuilder(now time.Time) (*Builder, *clock.FakeClock) {
	clk := clock.NewFakeClock(now)
	return New(WithClock(clk), WithSuffixSource(func() int { return 42 })), clk
}

func TestBuildCreateInvoice(t *testing.T) {
	now := time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)
	b, _ := newTestBuilder(now)

	doc, err := b.Build(documentdomain.KindInvoice, testForm(), testCompany(), nil)
	require.NoError(t, err)

	assert.Equal(t, "INV-2501-0042", doc.DocumentNumber)
	assert.Equal(t, 125.0, doc.Subtotal)
	assert.Equal(t, 12.5, doc.Tax)
	assert.Equal(t, 137.5, doc.Total)
	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, documentdomain.StatusPending, doc.Status)
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, now, doc.CreatedAt)
	assert.Equal(t, now, doc.UpdatedAt)
	assert.Equal(t, now, doc.IssueDate)
	assert.Equal(t, "Acme Supplies", doc.Issuer.Data().Name)
	assert.Equal(t, "https://cdn.example.com/logos/acme.png", doc.Issuer.Data().Logo)
}

func TestBuildRejectsEmptyItems(t *testing.T) {
	b, _ := newTestBuilder(time.Now())
	form := testForm()
	form.Items = nil

	_, err := b.Build(documentdomain.KindInvoice, form, testCompany(), nil)
	assert.ErrorIs(t, err, documentdomain.ErrNoLineItems)
	assert.True(t, ierr.Is(err, ierr.ErrValidation))
}

func TestBuildRequiresCompany(t *testing.T) {
	b, _ := newTestBuilder(time.Now())
	_, err := b.Build(documentdomain.KindReceipt, testForm(), nil, nil)
	assert.ErrorIs(t, err, documentdomain.ErrCompanyRequired)
}

func TestBuildDeliveryNoteCarriesNoPrice(t *testing.T) {
	b, _ := newTestBuilder(time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC))
	form := documentdomain.FormValues{
		Recipient:      documentdomain.PartyDetails{Name: "Globex"},
		Items:          []documentdomain.LineItem{{Description: "Box A", Quantity: 3, UnitPrice: price(99), Notes: "fragile"}},
		TaxRatePercent: 20,
	}

	doc, err := b.Build(documentdomain.KindDeliveryNote, form, testCompany(), nil)
	require.NoError(t, err)

	require.Len(t, doc.Items, 1)
	assert.Nil(t, doc.Items[0].UnitPrice)
	assert.Equal(t, "fragile", doc.Items[0].Notes)
	assert.Equal(t, 3.0, doc.Items[0].Quantity)
	assert.Zero(t, doc.Subtotal)
	assert.Zero(t, doc.Total)
	assert.Empty(t, doc.Status)
	assert.Equal(t, "DN-2503-0042", doc.DocumentNumber)
}

func TestBuildIgnoresKindSpecificFieldsOfOtherKinds(t *testing.T) {
	b, _ := newTestBuilder(time.Now())
	due := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	form := testForm()
	form.DueDate = &due
	form.PaymentMethod = "card"
	form.DeliveryAddress = "Dock 4"

	invoice, err := b.Build(documentdomain.KindInvoice, form, testCompany(), nil)
	require.NoError(t, err)
	assert.Equal(t, &due, invoice.DueDate)
	assert.Empty(t, invoice.PaymentMethod)
	assert.Empty(t, invoice.DeliveryAddress)

	receipt, err := b.Build(documentdomain.KindReceipt, form, testCompany(), nil)
	require.NoError(t, err)
	assert.Nil(t, receipt.DueDate)
	assert.Equal(t, "card", receipt.PaymentMethod)
}

func TestBuildUpdatePreservesIdentity(t *testing.T) {
	created := time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)
	b, clk := newTestBuilder(created)

	first, err := b.Build(documentdomain.KindInvoice, testForm(), testCompany(), nil)
	require.NoError(t, err)
	first.ID = snowflake.ID(77)
	first.OwnerID = "user-a"
	first.Status = documentdomain.StatusPaid
	first.Version = 3

	clk.Advance(48 * time.Hour)
	company := testCompany()
	company.Name = "Acme Renamed"

	form := testForm()
	form.Items = append(form.Items, documentdomain.LineItem{Description: "Extra", Quantity: 1, UnitPrice: price(5)})

	second, err := b.Build(documentdomain.KindInvoice, form, company, &first)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "user-a", second.OwnerID)
	assert.Equal(t, first.DocumentNumber, second.DocumentNumber)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, documentdomain.StatusPaid, second.Status)
	assert.Equal(t, int64(3), second.Version)
	assert.Equal(t, created.Add(48*time.Hour), second.UpdatedAt)
	assert.Equal(t, 130.0, second.Subtotal)
	assert.Equal(t, 143.0, second.Total)
	assert.Equal(t, "Acme Renamed", second.Issuer.Data().Name)
	assert.Equal(t, "Acme Supplies", first.Issuer.Data().Name)
}

func TestBuildUpdateRejectsKindChange(t *testing.T) {
	b, _ := newTestBuilder(time.Now())
	prev := documentdomain.Document{Kind: documentdomain.KindReceipt}
	_, err := b.Build(documentdomain.KindInvoice, testForm(), testCompany(), &prev)
	assert.ErrorIs(t, err, documentdomain.ErrInvalidKind)
}

func TestBuildRebuildIsIdempotent(t *testing.T) {
	b, clk := newTestBuilder(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	form := testForm()
	form.Items = []documentdomain.LineItem{
		{Description: "a", Quantity: 3, UnitPrice: price(0.1)},
		{Description: "b", Quantity: 7, UnitPrice: price(19.99)},
		{Description: "c", Quantity: 1.5, UnitPrice: price(33.333)},
	}
	form.TaxRatePercent = 7.25

	first, err := b.Build(documentdomain.KindInvoice, form, testCompany(), nil)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	rehydrated := first
	rebuilt, err := b.Build(documentdomain.KindInvoice, form, testCompany(), &rehydrated)
	require.NoError(t, err)

	assert.Equal(t, first.Subtotal, rebuilt.Subtotal)
	assert.Equal(t, first.Tax, rebuilt.Tax)
	assert.Equal(t, first.Total, rebuilt.Total)
}

func TestDocumentNumberScheme(t *testing.T) {
	b := New()
	patterns := map[documentdomain.Kind]*regexp.Regexp{
		documentdomain.KindInvoice:      regexp.MustCompile(`^INV-\d{4}-\d{4}$`),
		documentdomain.KindReceipt:      regexp.MustCompile(`^RCT-\d{4}-\d{4}$`),
		documentdomain.KindDeliveryNote: regexp.MustCompile(`^DN-\d{4}-\d{4}$`),
	}
	for kind, re := range patterns {
		for i := 0; i < 50; i++ {
			doc, err := b.Build(kind, testForm(), testCompany(), nil)
			require.NoError(t, err)
			assert.Regexp(t, re, doc.DocumentNumber)
		}
	}
}

func TestNewDocumentNumberPadsSuffix(t *testing.T) {
	at := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "RCT-2412-0007", NewDocumentNumber(documentdomain.KindReceipt, at, 7))
	assert.Equal(t, "DN-2412-2345", NewDocumentNumber(documentdomain.KindDeliveryNote, at, 12345))
}
