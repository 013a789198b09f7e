package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/clock"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/document/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Insert(ctx context.Context, doc *domain.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, kind domain.Kind, id snowflake.ID) (*domain.Document, error) {
	args := m.Called(ctx, kind, id)
	doc, _ := args.Get(0).(*domain.Document)
	return doc, args.Error(1)
}

func (m *mockRepo) Replace(ctx context.Context, doc *domain.Document, expectedVersion int64) error {
	return m.Called(ctx, doc, expectedVersion).Error(0)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.Status, updatedAt time.Time) error {
	return m.Called(ctx, id, status, updatedAt).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, kind domain.Kind, id snowflake.ID) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *mockRepo) Query(ctx context.Context, q domain.Query) ([]domain.Document, error) {
	args := m.Called(ctx, q)
	docs, _ := args.Get(0).([]domain.Document)
	return docs, args.Error(1)
}

type mockCompanies struct{ mock.Mock }

func (m *mockCompanies) Create(ctx context.Context, company *companydomain.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *mockCompanies) FindByID(ctx context.Context, id snowflake.ID) (*companydomain.Company, error) {
	args := m.Called(ctx, id)
	company, _ := args.Get(0).(*companydomain.Company)
	return company, args.Error(1)
}

func (m *mockCompanies) ListByOwner(ctx context.Context, ownerID string) ([]companydomain.Company, error) {
	args := m.Called(ctx, ownerID)
	companies, _ := args.Get(0).([]companydomain.Company)
	return companies, args.Error(1)
}

func (m *mockCompanies) Save(ctx context.Context, company *companydomain.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *mockCompanies) Delete(ctx context.Context, id snowflake.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockAssets struct{ mock.Mock }

func (m *mockAssets) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type memorySink struct {
	filename string
	data     []byte
}

func (s *memorySink) Save(_ context.Context, filename string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.filename, s.data = filename, data
	return nil
}

var (
	alice   = authdomain.Session{UserID: "alice", Email: "alice@acme.test"}
	bob     = authdomain.Session{UserID: "bob", Email: "bob@globex.test"}
	now     = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	nodes   = mustNode(3)
	company = &companydomain.Company{ID: 1001, OwnerID: "alice", Name: "Acme Ltd", City: "Springfield"}
)

func mustNode(n int64) *snowflake.Node {
	node, err := snowflake.NewNode(n)
	if err != nil {
		panic(err)
	}
	return node
}

func price(v float64) *float64 { return &v }

func invoiceForm() domain.FormValues {
	return domain.FormValues{
		Recipient:      domain.PartyDetails{Name: "Globex"},
		Items:          []domain.LineItem{{Description: "Consulting", Quantity: 2, UnitPrice: price(50)}, {Description: "Support", Quantity: 1, UnitPrice: price(25)}},
		Currency:       "USD",
		TaxRatePercent: 10,
	}
}

func hasDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}

type fixture struct {
	svc       domain.Service
	repo      *mockRepo
	companies *mockCompanies
	assets    *mockAssets
}

func newFixture(t *testing.T, suffixes ...int) *fixture {
	t.Helper()
	f := &fixture{repo: &mockRepo{}, companies: &mockCompanies{}, assets: &mockAssets{}}

	next := 0
	f.svc = New(Params{
		Log:            zap.NewNop(),
		Clock:          clock.NewFakeClock(now),
		GenID:          nodes,
		Config:         config.Config{CollaboratorTimeout: time.Second},
		DocumentConfig: config.NewStaticDocumentConfigHolder(config.DefaultDocumentConfig()),
		Repo:           f.repo,
		Companies:      f.companies,
		Assets:         f.assets,
		Exporter:       export.New(zap.NewNop()),
		SuffixSource: func() int {
			if len(suffixes) == 0 {
				return 42
			}
			v := suffixes[next%len(suffixes)]
			next++
			return v
		},
	})
	t.Cleanup(func() {
		f.repo.AssertExpectations(t)
		f.companies.AssertExpectations(t)
		f.assets.AssertExpectations(t)
	})
	return f
}

func storedInvoice(owner string) *domain.Document {
	return &domain.Document{
		ID:             nodes.Generate(),
		Kind:           domain.KindInvoice,
		OwnerID:        owner,
		DocumentNumber: "INV-2501-0042",
		Issuer:         datatypes.NewJSONType(domain.PartyDetails{Name: "Acme Ltd"}),
		Recipient:      datatypes.NewJSONType(domain.PartyDetails{Name: "Globex"}),
		Items:          datatypes.JSONSlice[domain.LineItem]{{Description: "Consulting", Quantity: 2, UnitPrice: price(50)}},
		Currency:       "USD",
		TaxRatePercent: 10,
		Subtotal:       100,
		Tax:            10,
		Total:          110,
		Status:         domain.StatusPending,
		IssueDate:      now,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateComputesTotalsAndInserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.companies.On("FindByID", mock.MatchedBy(hasDeadline), company.ID).Return(company, nil)

	var inserted domain.Document
	f.repo.On("Insert", mock.MatchedBy(hasDeadline), mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) { inserted = *args.Get(1).(*domain.Document) }).
		Return(nil)

	id, err := f.svc.Create(ctx, alice, domain.KindInvoice, invoiceForm(), company.ID.String())
	require.NoError(t, err)

	assert.Equal(t, inserted.ID, id)
	assert.Equal(t, "alice", inserted.OwnerID)
	assert.Equal(t, 125.0, inserted.Subtotal)
	assert.Equal(t, 12.5, inserted.Tax)
	assert.Equal(t, 137.5, inserted.Total)
	assert.Equal(t, domain.StatusPending, inserted.Status)
	assert.Equal(t, "Acme Ltd", inserted.Issuer.Data().Name)
	assert.Regexp(t, regexp.MustCompile(`^INV-\d{4}-\d{4}$`), inserted.DocumentNumber)
	assert.Equal(t, "INV-2501-0042", inserted.DocumentNumber)
}

func TestCreateRejectsInvalidForms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form := invoiceForm()
	form.Items = nil
	_, err := f.svc.Create(ctx, alice, domain.KindInvoice, form, company.ID.String())
	assert.True(t, ierr.Is(err, ierr.ErrValidation))

	_, err = f.svc.Create(ctx, alice, domain.Kind("quote"), invoiceForm(), company.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = f.svc.Create(ctx, alice, domain.KindInvoice, invoiceForm(), "")
	assert.ErrorIs(t, err, domain.ErrCompanyRequired)

	_, err = f.svc.Create(ctx, authdomain.Session{}, domain.KindInvoice, invoiceForm(), company.ID.String())
	assert.True(t, ierr.Is(err, ierr.ErrUnauthenticated))
}

func TestCreateWithForeignCompanyIsDenied(t *testing.T) {
	f := newFixture(t)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)

	_, err := f.svc.Create(context.Background(), bob, domain.KindReceipt, invoiceForm(), company.ID.String())
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateRetriesDuplicateNumber(t *testing.T) {
	f := newFixture(t, 42, 7)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)

	var numbers []string
	record := func(args mock.Arguments) {
		numbers = append(numbers, args.Get(1).(*domain.Document).DocumentNumber)
	}
	f.repo.On("Insert", mock.Anything, mock.Anything).Run(record).Return(domain.ErrDuplicateNumber).Once()
	f.repo.On("Insert", mock.Anything, mock.Anything).Run(record).Return(nil).Once()

	_, err := f.svc.Create(context.Background(), alice, domain.KindInvoice, invoiceForm(), company.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-2501-0042", "INV-2501-0007"}, numbers)
}

func TestCreateGivesUpAfterNumberAttempts(t *testing.T) {
	f := newFixture(t, 1, 2, 3, 4)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.repo.On("Insert", mock.Anything, mock.Anything).Return(domain.ErrDuplicateNumber).Times(3)

	_, err := f.svc.Create(context.Background(), alice, domain.KindInvoice, invoiceForm(), company.ID.String())
	assert.True(t, ierr.Is(err, ierr.ErrCollaborator))
	assert.Equal(t, ierr.MessageRetry, ierr.Notify(err).Message)
}

func TestNonOwnerCannotTouchDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := storedInvoice("alice")
	id := doc.ID.String()

	f.repo.On("FindByID", mock.Anything, domain.KindInvoice, doc.ID).Return(doc, nil)

	_, err := f.svc.Get(ctx, bob, domain.KindInvoice, id)
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))

	_, err = f.svc.Update(ctx, bob, domain.KindInvoice, id, invoiceForm(), company.ID.String(), doc)
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))

	assert.True(t, ierr.Is(f.svc.Remove(ctx, bob, domain.KindInvoice, id), ierr.ErrAccessDenied))
	assert.True(t, ierr.Is(f.svc.ChangeStatus(ctx, bob, id, domain.StatusPaid), ierr.ErrAccessDenied))

	_, err = f.svc.RegenerateAndDownload(ctx, bob, doc, &memorySink{})
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))

	f.repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.companies.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestNonOwnerUpdateWithInvalidFormIsDenied(t *testing.T) {
	f := newFixture(t)
	doc := storedInvoice("alice")
	f.repo.On("FindByID", mock.Anything, domain.KindInvoice, doc.ID).Return(doc, nil)

	_, err := f.svc.Update(context.Background(), bob, domain.KindInvoice, doc.ID.String(), domain.FormValues{}, company.ID.String(), nil)
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))
	assert.False(t, ierr.Is(err, ierr.ErrValidation))
	f.repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUsesCallerVersion(t *testing.T) {
	f := newFixture(t)
	stored := storedInvoice("alice")
	stored.Version = 3
	previous := *stored
	previous.Version = 2

	f.repo.On("FindByID", mock.Anything, domain.KindInvoice, stored.ID).Return(stored, nil)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.repo.On("Replace", mock.Anything, mock.AnythingOfType("*domain.Document"), int64(2)).Return(domain.ErrVersionConflict)

	_, err := f.svc.Update(context.Background(), alice, domain.KindInvoice, stored.ID.String(), invoiceForm(), company.ID.String(), &previous)
	assert.True(t, ierr.Is(err, ierr.ErrVersionConflict))
	assert.True(t, ierr.Notify(err).Retryable)
}

func TestUpdateKeepsIdentityAndRecomputes(t *testing.T) {
	f := newFixture(t)
	stored := storedInvoice("alice")
	stored.Status = domain.StatusPaid

	f.repo.On("FindByID", mock.Anything, domain.KindInvoice, stored.ID).Return(stored, nil)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.repo.On("Replace", mock.Anything, mock.AnythingOfType("*domain.Document"), int64(1)).Return(nil)

	updated, err := f.svc.Update(context.Background(), alice, domain.KindInvoice, stored.ID.String(), invoiceForm(), company.ID.String(), nil)
	require.NoError(t, err)

	assert.Equal(t, stored.ID, updated.ID)
	assert.Equal(t, stored.DocumentNumber, updated.DocumentNumber)
	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.Equal(t, 137.5, updated.Total)
}

func TestGetMissingAndBadIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, alice, domain.KindReceipt, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	f.repo.On("FindByID", mock.Anything, domain.KindReceipt, snowflake.ID(77)).Return(nil, nil)
	_, err = f.svc.Get(ctx, alice, domain.KindReceipt, "77")
	assert.True(t, ierr.Is(err, ierr.ErrNotFound))
}

func TestStoreFailureIsCollaboratorError(t *testing.T) {
	f := newFixture(t)
	f.repo.On("FindByID", mock.Anything, domain.KindInvoice, snowflake.ID(5)).Return(nil, errors.New("connection refused"))

	_, err := f.svc.Get(context.Background(), alice, domain.KindInvoice, "5")
	assert.True(t, ierr.Is(err, ierr.ErrCollaborator))

	n := ierr.Notify(err)
	assert.Equal(t, ierr.KindCollaborator, n.Kind)
	assert.NotContains(t, n.Message, "connection refused")
}

func TestChangeStatus(t *testing.T) {
	f := newFixture(t)
	doc := storedInvoice("alice")

	assert.ErrorIs(t, f.svc.ChangeStatus(context.Background(), alice, doc.ID.String(), domain.Status("refunded")), domain.ErrInvalidStatus)

	f.repo.On("FindByID", mock.Anything, domain.KindInvoice, doc.ID).Return(doc, nil)
	f.repo.On("UpdateStatus", mock.MatchedBy(hasDeadline), doc.ID, domain.StatusPaid, now).Return(nil)

	require.NoError(t, f.svc.ChangeStatus(context.Background(), alice, doc.ID.String(), domain.StatusPaid))
	f.repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestListScopesToOwner(t *testing.T) {
	f := newFixture(t)
	paid := domain.StatusPaid

	f.repo.On("Query", mock.Anything, domain.Query{
		Kind:    domain.KindInvoice,
		OwnerID: "alice",
		Status:  &paid,
		SortBy:  "total",
		Limit:   defaultListLimit,
	}).Return([]domain.Document{*storedInvoice("alice")}, nil)

	docs, err := f.svc.List(context.Background(), alice, domain.ListRequest{Kind: domain.KindInvoice, Status: &paid, SortBy: " total "})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, err = f.svc.List(context.Background(), alice, domain.ListRequest{Kind: domain.KindReceipt, Status: &paid})
	assert.ErrorIs(t, err, domain.ErrStatusNotSupported)

	_, err = f.svc.List(context.Background(), alice, domain.ListRequest{Kind: domain.KindInvoice, Limit: 1000})
	assert.True(t, ierr.Is(err, ierr.ErrValidation))
}

func TestRegenerateAndDownload(t *testing.T) {
	f := newFixture(t)
	doc := storedInvoice("alice")
	doc.Issuer = datatypes.NewJSONType(domain.PartyDetails{Name: "Acme Ltd", Logo: "https://cdn.test/bytebills/logos/alice/logo.png"})

	f.assets.On("Fetch", mock.MatchedBy(hasDeadline), "https://cdn.test/bytebills/logos/alice/logo.png").
		Return(nil, errors.New("timeout"))

	sink := &memorySink{}
	filename, err := f.svc.RegenerateAndDownload(context.Background(), alice, doc, sink)
	require.NoError(t, err)

	assert.Equal(t, "Invoice-INV-2501-0042.pdf", filename)
	assert.Equal(t, filename, sink.filename)
	assert.True(t, bytes.HasPrefix(sink.data, []byte("%PDF-")))
}

func TestRegenerateAndDownloadRejectsEmptyDocument(t *testing.T) {
	f := newFixture(t)
	doc := storedInvoice("alice")
	doc.Items = nil

	sink := &memorySink{}
	_, err := f.svc.RegenerateAndDownload(context.Background(), alice, doc, sink)
	assert.True(t, ierr.Is(err, ierr.ErrValidation))
	assert.Empty(t, sink.data)
}
