package repository

import (
	"context"
	"testing"

	"snapcircle/internal/models"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoRepository_ToggleLike(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPhotoRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	fan := testutil.CreateUser(t, db, "fan")
	photo := testutil.CreatePhoto(t, db, owner, "p")

	liked, count, err := repo.ToggleLike(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 1, count)

	got, err := repo.GetByID(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLiked)
	assert.EqualValues(t, 1, got.LikesCount)

	got, err = repo.GetByID(ctx, photo.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLiked)

	liked, count, err = repo.ToggleLike(ctx, photo.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, count)
}

func TestPhotoRepository_CountsAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	photos := NewPhotoRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	photo := testutil.CreatePhoto(t, db, owner, "p")

	_, _, err := photos.ToggleLike(ctx, photo.ID, owner.ID)
	require.NoError(t, err)
	require.NoError(t, comments.Create(ctx, &models.Comment{PhotoID: photo.ID, UserID: owner.ID, Text: "self"}))

	counts, err := photos.Counts(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PhotoCounts{LikesCount: 1, CommentsCount: 1}, counts)

	n, err := photos.CountByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, photos.Delete(ctx, photo.ID))
	err = photos.Delete(ctx, photo.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	var left int64
	require.NoError(t, db.Model(&models.Comment{}).Where("photo_id = ?", photo.ID).Count(&left).Error)
	assert.Zero(t, left)
}
