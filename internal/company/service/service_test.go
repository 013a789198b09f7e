package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/internal/company/repository"
	"github.com/smallbiznis/bytebills/internal/config"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/smallbiznis/bytebills/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	objects   map[string][]byte
	types     map[string]string
	deleted   []string
	putErr    error
	deleteErr error
	// block makes Put wait for its context to end.
	block bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string, progress func(int64)) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(int64(len(data)))
	}
	url := "https://cdn.test/bytebills/" + key
	f.objects[url] = data
	f.types[url] = contentType
	return url, nil
}

func (f *fakeStore) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, url)
	return nil
}

var (
	owner    = authdomain.Session{UserID: "user-1", Email: "owner@acme.test"}
	stranger = authdomain.Session{UserID: "user-2", Email: "other@globex.test"}
	pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, 600)...)
)

func newTestService(t *testing.T) (domain.Service, *fakeStore, *clock.FakeClock) {
	t.Helper()
	return newTestServiceWithConfig(t, config.Config{})
}

func newTestServiceWithConfig(t *testing.T, cfg config.Config) (domain.Service, *fakeStore, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Company{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	store := newFakeStore()
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log:    zap.NewNop(),
		Clock:  clk,
		GenID:  node,
		Config: cfg,
		Repo:   repository.Provide(conn),
		Store:  store,
	})
	return svc, store, clk
}

func TestCreateAndList(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "  Zeta Co "})
	require.NoError(t, err)
	acme, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme Ltd", Email: "billing@acme.test"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, stranger, domain.CreateRequest{Name: "Globex"})
	require.NoError(t, err)

	assert.Equal(t, owner.UserID, acme.OwnerID)
	assert.NotZero(t, acme.ID)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme Ltd", list[0].Name)
	assert.Equal(t, "Zeta Co", list[1].Name)
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), owner, domain.CreateRequest{})
	assert.True(t, ierr.Is(err, ierr.ErrValidation))

	_, err = svc.Create(context.Background(), owner, domain.CreateRequest{Name: "Acme", Email: "not-an-email"})
	assert.True(t, ierr.Is(err, ierr.ErrValidation))

	_, err = svc.Create(context.Background(), authdomain.Session{}, domain.CreateRequest{Name: "Acme"})
	assert.True(t, ierr.Is(err, ierr.ErrUnauthenticated))
}

func TestUpdateAppliesOnlyGivenFields(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme", City: "Springfield"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	phone := " 555-0100 "
	updated, err := svc.Update(ctx, owner, domain.UpdateRequest{ID: created.ID.String(), Phone: &phone})
	require.NoError(t, err)

	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "Springfield", updated.City)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt))

	empty := " "
	_, err = svc.Update(ctx, owner, domain.UpdateRequest{ID: created.ID.String(), Name: &empty})
	assert.True(t, ierr.Is(err, ierr.ErrValidation))
}

func TestOwnershipIsEnforced(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)
	id := created.ID.String()

	_, err = svc.Get(ctx, stranger, id)
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))

	name := "Hijacked"
	_, err = svc.Update(ctx, stranger, domain.UpdateRequest{ID: id, Name: &name})
	assert.True(t, ierr.Is(err, ierr.ErrAccessDenied))

	assert.True(t, ierr.Is(svc.Delete(ctx, stranger, id), ierr.ErrAccessDenied))

	got, err := svc.Get(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = svc.Get(ctx, owner, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(ctx, owner, "12345")
	assert.True(t, ierr.Is(err, ierr.ErrNotFound))
}

func TestUploadLogoReplacesPrevious(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme Widgets Co"})
	require.NoError(t, err)

	var uploaded int64
	first, err := svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{
		Body:     bytes.NewReader(pngBytes),
		Size:     int64(len(pngBytes)),
		Progress: func(n int64) { uploaded = n },
	})
	require.NoError(t, err)

	assert.Equal(t, int64(len(pngBytes)), uploaded)
	assert.True(t, strings.HasPrefix(first.LogoURL, "https://cdn.test/bytebills/logos/user-1/"))
	assert.True(t, strings.HasSuffix(first.LogoURL, "-acme-widgets-co.png"))
	assert.Equal(t, pngBytes, store.objects[first.LogoURL])
	assert.Equal(t, "image/png", store.types[first.LogoURL])
	firstURL := first.LogoURL

	second, err := svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{Body: bytes.NewReader(pngBytes), Size: int64(len(pngBytes))})
	require.NoError(t, err)

	assert.NotEqual(t, firstURL, second.LogoURL)
	assert.Equal(t, []string{firstURL}, store.deleted)

	got, err := svc.Get(ctx, owner, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, second.LogoURL, got.LogoURL)
}

func TestUploadLogoRejectsOtherFormats(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{Body: strings.NewReader("GIF89a not a logo we take")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedLogo)

	_, err = svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{Body: strings.NewReader("")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedLogo)

	assert.Empty(t, store.objects)
}

func TestUploadLogoStorageFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	store.putErr = errors.New("connection reset")
	_, err = svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{Body: bytes.NewReader(pngBytes)})
	assert.True(t, ierr.Is(err, ierr.ErrCollaborator))

	got, err := svc.Get(ctx, owner, created.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.LogoURL)
}

func TestUploadLogoTimesOut(t *testing.T) {
	svc, store, _ := newTestServiceWithConfig(t, config.Config{CollaboratorTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)

	store.block = true
	start := time.Now()
	_, err = svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{Body: bytes.NewReader(pngBytes)})
	assert.True(t, ierr.Is(err, ierr.ErrCollaborator))
	assert.True(t, ierr.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)

	got, err := svc.Get(ctx, owner, created.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.LogoURL)
}

func TestDeleteRemovesLogoBestEffort(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, domain.CreateRequest{Name: "Acme"})
	require.NoError(t, err)
	withLogo, err := svc.UploadLogo(ctx, owner, created.ID.String(), domain.Logo{Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)

	store.deleteErr = errors.New("bucket unavailable")
	require.NoError(t, svc.Delete(ctx, owner, created.ID.String()))
	assert.Equal(t, []string{withLogo.LogoURL}, store.deleted)

	_, err = svc.Get(ctx, owner, created.ID.String())
	assert.True(t, ierr.Is(err, ierr.ErrNotFound))
}
