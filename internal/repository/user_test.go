package repository

import (
	"context"
	"testing"

	"snapcircle/internal/cache"
	"snapcircle/internal/models"
	"snapcircle/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByIDServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.InitRedis(mr.Addr())
	require.NotNil(t, cache.GetClient())
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "cached")

	first, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.UserKey(u.ID)))

	// A write that skips invalidation is invisible until the key goes away.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Update("bio", "fresh").Error)
	stale, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Bio, stale.Bio)

	cache.InvalidateUser(ctx, u.ID)
	fresh, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", fresh.Bio)
}

func TestUserRepository_GetByLogin(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "login")

	byName, err := repo.GetByLogin(ctx, "login")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := repo.GetByLogin(ctx, "  LOGIN@snapcircle.test ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	missing, err := repo.GetByLogin(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.UpdateProfile(ctx, 999, map[string]interface{}{"bio": "x"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}
