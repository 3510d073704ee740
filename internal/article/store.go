package article

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/model"
)

// Scope narrows or orders an article query.
type Scope func(*gorm.DB) *gorm.DB

// Published keeps published articles.
func Published(db *gorm.DB) *gorm.DB {
	return db.Where("published = ?", true)
}

// Draft keeps unpublished articles.
func Draft(db *gorm.DB) *gorm.DB {
	return db.Where("published = ?", false)
}

// Recent orders newest first. The id breaks ties between equal timestamps.
func Recent(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// PublishedRecent is the public feed.
func PublishedRecent(db *gorm.DB) *gorm.DB {
	return db.Scopes(Published, Recent)
}

// WithAuthor loads each article's user.
func WithAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User")
}

// Store persists articles.
type Store interface {
	Create(ctx context.Context, article *model.Article) error
	Get(ctx context.Context, id uint, scopes ...Scope) (*model.Article, error)
	Find(ctx context.Context, scopes ...Scope) ([]*model.Article, error)
	Mutate(ctx context.Context, id uint, fn func(*model.Article) error) (*model.Article, error)
	Delete(ctx context.Context, id uint) (*model.Article, error)
	Count(ctx context.Context) (int64, error)
}

// GormStore is the Store backed by GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		panic("article: nil database for GormStore")
	}

	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, article *model.Article) error {
	// Select every column so a false Published is written rather than
	// left to the column default.
	err := s.db.WithContext(ctx).
		Select("UserID", "Title", "Content", "Published", "PublishedAt", "CreatedAt", "UpdatedAt").
		Create(article).Error
	if err != nil {
		return fmt.Errorf("gorm: create article %q: %w", article.Title, err)
	}

	return nil
}

// Get loads one article. Scopes can restrict which articles count as found,
// e.g. Get(ctx, id, Published).
func (s *GormStore) Get(ctx context.Context, id uint, scopes ...Scope) (*model.Article, error) {
	var article model.Article

	err := s.db.WithContext(ctx).Scopes(toGorm(scopes)...).First(&article, id).Error
	if err != nil {
		return nil, translate(err, id)
	}

	return &article, nil
}

func (s *GormStore) Find(ctx context.Context, scopes ...Scope) ([]*model.Article, error) {
	var articles []*model.Article

	if err := s.db.WithContext(ctx).Scopes(toGorm(scopes)...).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("gorm: find articles: %w", err)
	}

	return articles, nil
}

// Mutate applies fn to the current row inside one transaction holding a row
// lock, then writes the mutable columns back. If fn returns an error nothing
// is written and the error is returned as is.
func (s *GormStore) Mutate(ctx context.Context, id uint, fn func(*model.Article) error) (*model.Article, error) {
	var article model.Article

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&article, id).Error
		if err != nil {
			return translate(err, id)
		}

		if err := fn(&article); err != nil {
			return err
		}

		err = tx.Model(&article).
			Select("Title", "Content", "Published", "PublishedAt", "UpdatedAt").
			Updates(&article).Error
		if err != nil {
			return fmt.Errorf("gorm: update article %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &article, nil
}

// Delete removes the article and returns what was removed.
func (s *GormStore) Delete(ctx context.Context, id uint) (*model.Article, error) {
	var article model.Article

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&article, id).Error; err != nil {
			return translate(err, id)
		}

		if err := tx.Delete(&article).Error; err != nil {
			return fmt.Errorf("gorm: delete article %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &article, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64

	if err := s.db.WithContext(ctx).Model(&model.Article{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("gorm: count articles: %w", err)
	}

	return n, nil
}

func toGorm(scopes []Scope) []func(*gorm.DB) *gorm.DB {
	out := make([]func(*gorm.DB) *gorm.DB, len(scopes))
	for i, s := range scopes {
		out[i] = s
	}

	return out
}

func translate(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("Article", id)
	}

	return fmt.Errorf("gorm: load article %d: %w", id, err)
}
