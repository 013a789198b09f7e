package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/bytebills/internal/clock"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	companyrepository "github.com/smallbiznis/bytebills/internal/company/repository"
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/document/repository"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStoreBackedService(t *testing.T) (domain.Service, *clock.FakeClock, string) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Document{}, &companydomain.Company{}))

	companies := companyrepository.Provide(conn)
	issuer := &companydomain.Company{ID: nodes.Generate(), OwnerID: "alice", Name: "Acme Ltd", Country: "US", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, companies.Create(context.Background(), issuer))

	clk := clock.NewFakeClock(now)
	svc := New(Params{
		Log:            zap.NewNop(),
		Clock:          clk,
		GenID:          nodes,
		Config:         config.Config{CollaboratorTimeout: time.Second},
		DocumentConfig: config.NewStaticDocumentConfigHolder(config.DefaultDocumentConfig()),
		Repo:           repository.Provide(conn),
		Companies:      companies,
		Exporter:       export.New(zap.NewNop()),
	})
	return svc, clk, issuer.ID.String()
}

func TestRoundTripKeepsTotals(t *testing.T) {
	svc, clk, companyID := newStoreBackedService(t)
	ctx := context.Background()

	form := invoiceForm()
	form.Items = append(form.Items, domain.LineItem{Description: "Adjustment", Quantity: 3, UnitPrice: price(0.1)})
	form.TaxRatePercent = 7.25

	id, err := svc.Create(ctx, alice, domain.KindInvoice, form, companyID)
	require.NoError(t, err)

	created, err := svc.Get(ctx, alice, domain.KindInvoice, id.String())
	require.NoError(t, err)

	clk.Advance(time.Hour)
	updated, err := svc.Update(ctx, alice, domain.KindInvoice, id.String(), form, companyID, created)
	require.NoError(t, err)

	reloaded, err := svc.Get(ctx, alice, domain.KindInvoice, id.String())
	require.NoError(t, err)

	for _, doc := range []*domain.Document{updated, reloaded} {
		assert.Equal(t, created.Subtotal, doc.Subtotal)
		assert.Equal(t, created.Tax, doc.Tax)
		assert.Equal(t, created.Total, doc.Total)
		assert.Equal(t, created.DocumentNumber, doc.DocumentNumber)
	}
	assert.Equal(t, created.Version+1, reloaded.Version)
	assert.True(t, reloaded.UpdatedAt.After(created.UpdatedAt))
}

func TestConcurrentEditConflicts(t *testing.T) {
	svc, _, companyID := newStoreBackedService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, alice, domain.KindInvoice, invoiceForm(), companyID)
	require.NoError(t, err)

	opened, err := svc.Get(ctx, alice, domain.KindInvoice, id.String())
	require.NoError(t, err)

	require.NoError(t, svc.ChangeStatus(ctx, alice, id.String(), domain.StatusPaid))

	_, err = svc.Update(ctx, alice, domain.KindInvoice, id.String(), invoiceForm(), companyID, opened)
	assert.True(t, ierr.Is(err, ierr.ErrVersionConflict))

	current, err := svc.Get(ctx, alice, domain.KindInvoice, id.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, current.Status)
}

func TestNonOwnerUpdateLeavesStoreUntouched(t *testing.T) {
	svc, _, companyID := newStoreBackedService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, alice, domain.KindInvoice, invoiceForm(), companyID)
	require.NoError(t, err)
	before, err := svc.Get(ctx, alice, domain.KindInvoice, id.String())
	require.NoError(t, err)

	form := invoiceForm()
	form.Items[0].Quantity = 99
	_, err = svc.Update(ctx, bob, domain.KindInvoice, id.String(), form, companyID, nil)
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))
	assert.True(t, ierr.Is(svc.Remove(ctx, bob, domain.KindInvoice, id.String()), ierr.ErrAccessDenied))

	after, err := svc.Get(ctx, alice, domain.KindInvoice, id.String())
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, before.Version, after.Version)
}
