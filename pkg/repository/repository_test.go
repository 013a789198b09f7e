package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/bytebills/pkg/db"
	"github.com/smallbiznis/bytebills/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID      string `gorm:"primaryKey"`
	OwnerID string
	Name    string
}

func newWidgetStore(t *testing.T) Repository[widget] {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return ProvideStore[widget](conn)
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newWidgetStore(t)

	require.NoError(t, store.Create(ctx, &widget{ID: "1", OwnerID: "a", Name: "beta"}))
	require.NoError(t, store.Create(ctx, &widget{ID: "2", OwnerID: "a", Name: "alpha"}))
	require.NoError(t, store.Create(ctx, &widget{ID: "3", OwnerID: "b", Name: "gamma"}))

	owned, err := store.Find(ctx, &widget{OwnerID: "a"}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "name",
		OrderBy: "asc",
		Allow:   map[string]bool{"name": true},
		Default: "name",
	}))
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "alpha", owned[0].Name)

	found, err := store.FindOne(ctx, &widget{ID: "3"})
	require.NoError(t, err)
	require.NotNil(t, found)
	found.Name = "delta"
	require.NoError(t, store.Save(ctx, found))

	reloaded, err := store.FindOne(ctx, &widget{ID: "3"})
	require.NoError(t, err)
	assert.Equal(t, "delta", reloaded.Name)

	require.NoError(t, store.Delete(ctx, "3"))
	missing, err := store.FindOne(ctx, &widget{ID: "3"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}
