package article_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/storage/storagetest"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)

	return c.t
}

type fixture struct {
	db     *gorm.DB
	store  *article.GormStore
	svc    *article.Service
	clock  *stepClock
	admin  *model.User
	author *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := storagetest.New(t)
	admin := &model.User{Email: "admin@example.com", PasswordHash: "x", Admin: true}
	author := &model.User{Email: "author@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(author).Error)

	clock := &stepClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := article.NewGormStore(db)
	svc, err := article.NewService(store, zap.NewNop().Sugar(), article.WithClock(clock.Now))
	require.NoError(t, err)

	return &fixture{db: db, store: store, svc: svc, clock: clock, admin: admin, author: author}
}

func boolPtr(b bool) *bool { return &b }

func (f *fixture) draft(t *testing.T) *model.Article {
	t.Helper()

	a, err := f.svc.Create(context.Background(), f.admin, article.Input{
		Title:     "My First Post",
		Content:   "This is a long enough body.",
		Published: boolPtr(false),
	})
	require.NoError(t, err)

	return a
}

func (f *fixture) reload(t *testing.T, id uint) *model.Article {
	t.Helper()

	var a model.Article
	require.NoError(t, f.db.First(&a, id).Error)

	return &a
}

func assertConsistent(t *testing.T, a *model.Article) {
	t.Helper()
	assert.Equal(t, a.Published, a.PublishedAt != nil, "published=%v published_at=%v", a.Published, a.PublishedAt)
}

func asValidation(t *testing.T, err error) *apperrors.ValidationError {
	t.Helper()

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)

	return verr
}

func asAuthorization(t *testing.T, err error) *apperrors.AuthorizationError {
	t.Helper()

	var aerr *apperrors.AuthorizationError
	require.True(t, errors.As(err, &aerr), "expected authorization error, got %v", err)

	return aerr
}

func TestCreateDraft(t *testing.T) {
	f := newFixture(t)

	a := f.draft(t)

	stored := f.reload(t, a.ID)
	assert.Equal(t, "My First Post", stored.Title)
	assert.False(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
	assert.Equal(t, f.admin.ID, stored.UserID)
	assert.True(t, stored.IsDraft())
}

func TestCreateWithoutPublishedFlagIsDraft(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Create(context.Background(), f.admin, article.Input{
		Title:   "Untitled draft",
		Content: "Body text that is long enough.",
	})
	require.NoError(t, err)
	assert.False(t, f.reload(t, a.ID).Published)
}

func TestCreateRejectsShortTitle(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.admin, article.Input{
		Title:   "Hi",
		Content: "This is a long enough body.",
	})

	verr := asValidation(t, err)
	assert.GreaterOrEqual(t, verr.Count(), 1)

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// Created published through the form, the article has no published_at:
// only Publish stamps it.
func TestCreatePublishedDoesNotStampPublishedAt(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Create(context.Background(), f.admin, article.Input{
		Title:     "Straight to the blog",
		Content:   "This is a long enough body.",
		Published: boolPtr(true),
	})
	require.NoError(t, err)

	stored := f.reload(t, a.ID)
	assert.True(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
}

func TestPublish(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)

	published, err := f.svc.Publish(context.Background(), f.admin, a.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)
	require.NotNil(t, published.PublishedAt)

	stored := f.reload(t, a.ID)
	assertConsistent(t, stored)
	assert.True(t, stored.PublishedAt.Equal(*published.PublishedAt))
}

func TestPublishTwiceRestampsPublishedAt(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)

	first, err := f.svc.Publish(context.Background(), f.admin, a.ID)
	require.NoError(t, err)
	second, err := f.svc.Publish(context.Background(), f.admin, a.ID)
	require.NoError(t, err)

	require.NotNil(t, first.PublishedAt)
	require.NotNil(t, second.PublishedAt)
	assert.True(t, second.PublishedAt.After(*first.PublishedAt))
	assert.True(t, f.reload(t, a.ID).PublishedAt.Equal(*second.PublishedAt))
}

func TestUnpublish(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)
	_, err := f.svc.Publish(context.Background(), f.admin, a.ID)
	require.NoError(t, err)

	unpublished, err := f.svc.Unpublish(context.Background(), f.admin, a.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.Published)
	assert.Nil(t, unpublished.PublishedAt)

	stored := f.reload(t, a.ID)
	assert.False(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
}

func TestRepublishGetsFreshTimestamp(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)
	ctx := context.Background()

	first, err := f.svc.Publish(ctx, f.admin, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Unpublish(ctx, f.admin, a.ID)
	require.NoError(t, err)
	again, err := f.svc.Publish(ctx, f.admin, a.ID)
	require.NoError(t, err)

	require.NotNil(t, again.PublishedAt)
	assert.False(t, again.PublishedAt.Before(*first.PublishedAt))
}

func TestTransitionsKeepInvariant(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)
	ctx := context.Background()

	steps := []bool{true, true, false, false, true, false, true}
	for _, publish := range steps {
		var err error
		if publish {
			_, err = f.svc.Publish(ctx, f.admin, a.ID)
		} else {
			_, err = f.svc.Unpublish(ctx, f.admin, a.ID)
		}
		require.NoError(t, err)

		stored := f.reload(t, a.ID)
		assertConsistent(t, stored)
		assert.Equal(t, publish, stored.Published)
	}
}

func TestTransitionRejectedByValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Written around the service, the way stale rows end up in the table.
	broken := &model.Article{UserID: f.author.ID, Title: "Okay title", Content: "short"}
	require.NoError(t, f.store.Create(ctx, broken))

	_, err := f.svc.Publish(ctx, f.admin, broken.ID)

	var terr *apperrors.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "publish", terr.Transition)
	assert.Equal(t, "Unable to publish article: Validation failed: Content is too short (minimum is 10 characters)", err.Error())

	stored := f.reload(t, broken.ID)
	assert.False(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
}

func TestUnpublishRejectedLeavesPublishedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	broken := &model.Article{UserID: f.author.ID, Title: "Tiny", Content: "Long enough content here.", Published: true, PublishedAt: &at}
	require.NoError(t, f.store.Create(ctx, broken))

	_, err := f.svc.Unpublish(ctx, f.admin, broken.ID)

	var terr *apperrors.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "unpublish", terr.Transition)

	stored := f.reload(t, broken.ID)
	assert.True(t, stored.Published)
	require.NotNil(t, stored.PublishedAt)
	assert.True(t, stored.PublishedAt.Equal(at))
}

func TestTransitionOnMissingArticle(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Publish(context.Background(), f.admin, 404)

	var nferr *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nferr))
}

func TestNonAdminIsDeniedEvenOnOwnArticle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := &model.Article{UserID: f.author.ID, Title: "Author's own post", Content: "Written by the author."}
	require.NoError(t, f.store.Create(ctx, own))

	calls := map[string]func(caller *model.User) error{
		"list":    func(c *model.User) error { _, err := f.svc.List(ctx, c); return err },
		"show":    func(c *model.User) error { _, err := f.svc.Show(ctx, c, own.ID); return err },
		"preview": func(c *model.User) error { _, err := f.svc.Preview(ctx, c, own.ID); return err },
		"create": func(c *model.User) error {
			_, err := f.svc.Create(ctx, c, article.Input{Title: "Another one", Content: "Long enough content."})
			return err
		},
		"update": func(c *model.User) error {
			_, err := f.svc.Update(ctx, c, own.ID, article.Input{Title: "Edited title", Content: "Edited content here."})
			return err
		},
		"destroy":   func(c *model.User) error { _, err := f.svc.Destroy(ctx, c, own.ID); return err },
		"publish":   func(c *model.User) error { _, err := f.svc.Publish(ctx, c, own.ID); return err },
		"unpublish": func(c *model.User) error { _, err := f.svc.Unpublish(ctx, c, own.ID); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, apperrors.Forbidden, asAuthorization(t, call(f.author)).Reason)
			assert.Equal(t, apperrors.Unauthenticated, asAuthorization(t, call(nil)).Reason)
		})
	}

	stored := f.reload(t, own.ID)
	assert.Equal(t, "Author's own post", stored.Title)
	assert.False(t, stored.Published)
}

func TestAdminManagesAnyonesArticle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	theirs := &model.Article{UserID: f.author.ID, Title: "Author's own post", Content: "Written by the author."}
	require.NoError(t, f.store.Create(ctx, theirs))

	_, err := f.svc.Publish(ctx, f.admin, theirs.ID)
	require.NoError(t, err)
	assert.True(t, f.reload(t, theirs.ID).Published)
	assert.Equal(t, f.author.ID, f.reload(t, theirs.ID).UserID)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)

	updated, err := f.svc.Update(context.Background(), f.admin, a.ID, article.Input{
		Title:   "My Edited Post",
		Content: "An edited body, still long enough.",
	})
	require.NoError(t, err)
	assert.Equal(t, "My Edited Post", updated.Title)

	stored := f.reload(t, a.ID)
	assert.Equal(t, "An edited body, still long enough.", stored.Content)
	assert.False(t, stored.Published, "nil Published leaves the flag alone")
	assert.Equal(t, a.UserID, stored.UserID)
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)

	_, err := f.svc.Update(context.Background(), f.admin, a.ID, article.Input{Title: "Hey", Content: "tiny"})

	verr := asValidation(t, err)
	assert.Equal(t, 2, verr.Count())
	assert.Equal(t, "My First Post", f.reload(t, a.ID).Title)
}

// A direct update that flips the flag does not touch published_at. The
// flag and the timestamp can disagree afterwards; Publish and Unpublish
// are the only operations that keep them in step.
func TestUpdateFlipLeavesPublishedAtUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.draft(t)
	in := article.Input{Title: a.Title, Content: a.Content}

	in.Published = boolPtr(true)
	_, err := f.svc.Update(ctx, f.admin, a.ID, in)
	require.NoError(t, err)
	stored := f.reload(t, a.ID)
	assert.True(t, stored.Published)
	assert.Nil(t, stored.PublishedAt, "published through update, no timestamp")

	published, err := f.svc.Publish(ctx, f.admin, a.ID)
	require.NoError(t, err)

	in.Published = boolPtr(false)
	_, err = f.svc.Update(ctx, f.admin, a.ID, in)
	require.NoError(t, err)
	stored = f.reload(t, a.ID)
	assert.False(t, stored.Published)
	require.NotNil(t, stored.PublishedAt, "unpublished through update, stale timestamp kept")
	assert.True(t, stored.PublishedAt.Equal(*published.PublishedAt))
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.draft(t)

	destroyed, err := f.svc.Destroy(ctx, f.admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "My First Post", destroyed.Title)

	_, err = f.svc.Show(ctx, f.admin, a.ID)
	var nferr *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nferr))

	_, err = f.svc.Destroy(ctx, f.admin, a.ID)
	assert.True(t, errors.As(err, &nferr))
}

func seedMixed(t *testing.T, f *fixture) {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, published := range []bool{true, false, true, true, false} {
		a := &model.Article{
			UserID:    f.author.ID,
			Title:     "Article number " + string(rune('A'+i)),
			Content:   "Some body text for the article.",
			Published: published,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if published {
			at := a.CreatedAt
			a.PublishedAt = &at
		}
		require.NoError(t, f.store.Create(ctx, a))
	}
}

func TestFeedIsPublishedNewestFirst(t *testing.T) {
	f := newFixture(t)
	seedMixed(t, f)

	feed, err := f.svc.Feed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 3)

	for i, a := range feed {
		assert.True(t, a.Published)
		if i > 0 {
			assert.False(t, a.CreatedAt.After(feed[i-1].CreatedAt), "feed out of order at %d", i)
		}
	}
	assert.Equal(t, "Article number D", feed[0].Title)
}

func TestReadHidesDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.draft(t)

	got, err := f.svc.Read(ctx, a.ID)
	assert.Nil(t, got)
	var nferr *apperrors.NotFoundError
	require.True(t, errors.As(err, &nferr))

	_, err = f.svc.Publish(ctx, f.admin, a.ID)
	require.NoError(t, err)

	got, err = f.svc.Read(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Content, got.Content)
}

func TestPreviewShowsDrafts(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)

	got, err := f.svc.Preview(context.Background(), f.admin, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDraft())
}

func TestList(t *testing.T) {
	f := newFixture(t)
	seedMixed(t, f)

	listing, err := f.svc.List(context.Background(), f.admin)
	require.NoError(t, err)
	assert.Len(t, listing.Published, 3)
	assert.Len(t, listing.Drafts, 2)
	assert.Equal(t, "Article number E", listing.Drafts[0].Title)
	require.NotNil(t, listing.Drafts[0].User)
	assert.Equal(t, f.author.Email, listing.Drafts[0].User.Email)
}

func TestConcurrentTransitionsKeepInvariant(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			var err error
			if i%2 == 0 {
				_, err = f.svc.Publish(ctx, f.admin, a.ID)
			} else {
				_, err = f.svc.Unpublish(ctx, f.admin, a.ID)
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assertConsistent(t, f.reload(t, a.ID))
}

func TestConcurrentUpdateAndPublishDoNotClobber(t *testing.T) {
	f := newFixture(t)
	a := f.draft(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.Publish(ctx, f.admin, a.ID)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.Update(ctx, f.admin, a.ID, article.Input{Title: "Renamed concurrently", Content: a.Content})
		assert.NoError(t, err)
	}()
	wg.Wait()

	stored := f.reload(t, a.ID)
	assert.Equal(t, "Renamed concurrently", stored.Title)
	assert.True(t, stored.Published)
	assertConsistent(t, stored)
}
