package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/auth/password"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	created, err := EnsureUser(ctx, conn, node, clk, User{Email: " Owner@Example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureUser(ctx, conn, node, clk, User{Email: "owner@example.com", Password: "another-pass"})
	require.NoError(t, err)
	assert.False(t, created)

	var users []authdomain.User
	require.NoError(t, conn.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "owner@example.com", users[0].Email)
	assert.Equal(t, "owner", users[0].DisplayName)
	assert.True(t, password.Verify("s3cret-pass", users[0].PasswordHash))
}

func TestEnsureUserRejectsShortPassword(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	_, err = EnsureUser(context.Background(), conn, node, clock.NewSystemClock(), User{Email: "a@b.test", Password: "short"})
	assert.ErrorIs(t, err, ErrBootstrapPassword)
}
