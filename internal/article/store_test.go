package article_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/storage/storagetest"
)

func newStore(t *testing.T) (*article.GormStore, *model.User) {
	t.Helper()

	db := storagetest.New(t)
	owner := &model.User{Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(owner).Error)

	return article.NewGormStore(db), owner
}

func TestStoreScopes(t *testing.T) {
	store, owner := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, published := range []bool{false, true, false, true} {
		require.NoError(t, store.Create(ctx, &model.Article{
			UserID:    owner.ID,
			Title:     "Scoped article",
			Content:   "Scoped article content.",
			Published: published,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	published, err := store.Find(ctx, article.Published)
	require.NoError(t, err)
	assert.Len(t, published, 2)

	drafts, err := store.Find(ctx, article.Draft)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
	for _, d := range drafts {
		assert.False(t, d.Published)
	}

	recent, err := store.Find(ctx, article.Recent)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(3*time.Minute)))
	assert.True(t, recent[3].CreatedAt.Equal(base))

	feed, err := store.Find(ctx, article.PublishedRecent)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.True(t, feed[0].CreatedAt.After(feed[1].CreatedAt))
}

func TestStoreGetWithScope(t *testing.T) {
	store, owner := newStore(t)
	ctx := context.Background()

	draft := &model.Article{UserID: owner.ID, Title: "Draft only", Content: "Not for the public."}
	require.NoError(t, store.Create(ctx, draft))

	_, err := store.Get(ctx, draft.ID)
	require.NoError(t, err)

	_, err = store.Get(ctx, draft.ID, article.Published)
	var nferr *apperrors.NotFoundError
	require.True(t, errors.As(err, &nferr))
	assert.Equal(t, "Article", nferr.Resource)
}

func TestStoreMutateRollsBackOnError(t *testing.T) {
	store, owner := newStore(t)
	ctx := context.Background()

	a := &model.Article{UserID: owner.ID, Title: "Original title", Content: "Original content."}
	require.NoError(t, store.Create(ctx, a))

	boom := errors.New("boom")
	_, err := store.Mutate(ctx, a.ID, func(m *model.Article) error {
		m.Title = "Changed title"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original title", stored.Title)
}

func TestStoreMutateWritesNulls(t *testing.T) {
	store, owner := newStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := &model.Article{UserID: owner.ID, Title: "Live article", Content: "Live content.", Published: true, PublishedAt: &at}
	require.NoError(t, store.Create(ctx, a))

	_, err := store.Mutate(ctx, a.ID, func(m *model.Article) error {
		m.Published = false
		m.PublishedAt = nil
		return nil
	})
	require.NoError(t, err)

	stored, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
}

func TestStoreDeleteMissing(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Delete(context.Background(), 99)
	var nferr *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nferr))
}
