// Package seed creates the records a fresh installation needs. Running it
// again changes nothing that is already there.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/user"
	"github.com/SergeyParamoshkin/blog/internal/validation"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "password123"
)

// Result reports what a run created.
type Result struct {
	Admin           *model.User
	AdminCreated    bool
	ArticlesCreated int
}

// Run makes sure the admin account exists and, when the articles table is
// empty, adds three published articles and two drafts owned by the admin.
// An existing admin@example.com account is left as it is.
func Run(ctx context.Context, users *user.GormStore, articles article.Store, logger *zap.SugaredLogger) (*Result, error) {
	res := &Result{}

	admin, err := users.FindByEmail(ctx, AdminEmail)

	var nferr *apperrors.NotFoundError
	switch {
	case errors.As(err, &nferr):
		hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("seed: hash password: %w", err)
		}

		admin = &model.User{Email: AdminEmail, PasswordHash: string(hash), Admin: true}
		if err := users.Create(ctx, admin); err != nil {
			return nil, fmt.Errorf("seed: create admin: %w", err)
		}

		res.AdminCreated = true
	case err != nil:
		return nil, fmt.Errorf("seed: find admin: %w", err)
	}

	res.Admin = admin
	logger.Infow("seeded admin user", "email", admin.Email, "created", res.AdminCreated)

	n, err := articles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return res, nil
	}

	now := time.Now()
	for _, a := range samples(admin.ID, now) {
		if err := validation.Struct(a); err != nil {
			return nil, fmt.Errorf("seed: %q: %w", a.Title, err)
		}

		if err := articles.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}

		res.ArticlesCreated++
		logger.Infow("seeded article", "title", a.Title, "published", a.Published)
	}

	return res, nil
}

func samples(owner uint, now time.Time) []*model.Article {
	var out []*model.Article

	for i := 1; i <= 3; i++ {
		publishedAt := now.AddDate(0, 0, -i)
		out = append(out, &model.Article{
			UserID:      owner,
			Title:       fmt.Sprintf("Published Article %d", i),
			Content:     fmt.Sprintf("This is the content for published article %d. It contains enough text to meet the minimum requirements for validation.", i),
			Published:   true,
			PublishedAt: &publishedAt,
		})
	}

	for i := 1; i <= 2; i++ {
		out = append(out, &model.Article{
			UserID:  owner,
			Title:   fmt.Sprintf("Draft Article %d", i),
			Content: fmt.Sprintf("This is the content for draft article %d. This article is not yet published and only visible to admins.", i),
		})
	}

	return out
}
