package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/seed"
	"github.com/SergeyParamoshkin/blog/internal/storage/storagetest"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

func TestRunSeedsOnce(t *testing.T) {
	db := storagetest.New(t)
	users := user.NewGormStore(db)
	articles := article.NewGormStore(db)
	ctx := context.Background()
	log := zap.NewNop().Sugar()

	res, err := seed.Run(ctx, users, articles, log)
	require.NoError(t, err)
	assert.True(t, res.AdminCreated)
	assert.Equal(t, 5, res.ArticlesCreated)
	assert.True(t, res.Admin.IsAdmin())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.Admin.PasswordHash), []byte(seed.AdminPassword)))

	published, err := articles.Find(ctx, article.PublishedRecent)
	require.NoError(t, err)
	require.Len(t, published, 3)
	for _, a := range published {
		require.NotNil(t, a.PublishedAt)
		assert.WithinDuration(t, time.Now(), *a.PublishedAt, 4*24*time.Hour)
		assert.True(t, a.PublishedAt.Before(time.Now().Add(-23*time.Hour)))
		assert.Equal(t, res.Admin.ID, a.UserID)
	}

	drafts, err := articles.Find(ctx, article.Draft)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	for _, a := range drafts {
		assert.Nil(t, a.PublishedAt)
	}

	again, err := seed.Run(ctx, users, articles, log)
	require.NoError(t, err)
	assert.False(t, again.AdminCreated)
	assert.Zero(t, again.ArticlesCreated)
	assert.Equal(t, res.Admin.ID, again.Admin.ID)

	n, err := articles.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestRunKeepsExistingArticlesAndAccount(t *testing.T) {
	db := storagetest.New(t)
	users := user.NewGormStore(db)
	articles := article.NewGormStore(db)
	ctx := context.Background()

	existing := &model.User{Email: seed.AdminEmail, PasswordHash: "kept"}
	require.NoError(t, users.Create(ctx, existing))
	require.NoError(t, articles.Create(ctx, &model.Article{UserID: existing.ID, Title: "Already here", Content: "Written before seeding."}))

	res, err := seed.Run(ctx, users, articles, zap.NewNop().Sugar())
	require.NoError(t, err)

	assert.False(t, res.AdminCreated)
	assert.Equal(t, "kept", res.Admin.PasswordHash)
	assert.False(t, res.Admin.Admin)
	assert.Zero(t, res.ArticlesCreated)
}
