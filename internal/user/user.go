package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/model"
)

// Scope narrows a user query.
type Scope func(*gorm.DB) *gorm.DB

func Admins(db *gorm.DB) *gorm.DB {
	return db.Where("admin = ?", true)
}

func RegularUsers(db *gorm.DB) *gorm.DB {
	return db.Where("admin = ?", false)
}

// GormStore persists users.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		panic("user: nil database for GormStore")
	}

	return &GormStore{db: db}
}

// Create inserts u. A taken email comes back as a validation error on Email.
func (s *GormStore) Create(ctx context.Context, u *model.User) error {
	err := s.db.WithContext(ctx).
		Select("Email", "PasswordHash", "Admin", "CreatedAt", "UpdatedAt").
		Create(u).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			verr := &apperrors.ValidationError{}
			verr.Add("Email", "has already been taken")

			return verr
		}

		return fmt.Errorf("gorm: create user %q: %w", u.Email, err)
	}

	return nil
}

// FindByEmail matches the email exactly.
func (s *GormStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, email)
	}

	return &u, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User

	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, id)
	}

	return &u, nil
}

func (s *GormStore) Find(ctx context.Context, scopes ...Scope) ([]*model.User, error) {
	var users []*model.User

	gormScopes := make([]func(*gorm.DB) *gorm.DB, len(scopes))
	for i, sc := range scopes {
		gormScopes[i] = sc
	}

	if err := s.db.WithContext(ctx).Scopes(gormScopes...).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("gorm: find users: %w", err)
	}

	return users, nil
}

// SetAdmin grants or revokes admin privileges.
func (s *GormStore) SetAdmin(ctx context.Context, id uint, admin bool) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
			return translate(err, id)
		}

		if err := tx.Model(&u).Update("admin", admin).Error; err != nil {
			return fmt.Errorf("gorm: set admin on user %d: %w", id, err)
		}
		u.Admin = admin

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Delete removes the user together with every article they own, and
// reports how many articles went with them.
func (s *GormStore) Delete(ctx context.Context, id uint) (*model.User, int64, error) {
	var (
		u        model.User
		articles int64
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return translate(err, id)
		}

		if err := tx.Model(&model.Article{}).Where("user_id = ?", id).Count(&articles).Error; err != nil {
			return fmt.Errorf("gorm: count articles of user %d: %w", id, err)
		}

		if err := tx.Select("Articles").Delete(&u).Error; err != nil {
			return fmt.Errorf("gorm: delete user %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return &u, articles, nil
}

func translate(err error, key interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("User", key)
	}

	return fmt.Errorf("gorm: load user %v: %w", key, err)
}

// isDuplicateEntryError recognises unique violations whether or not the
// driver translated them.
func isDuplicateEntryError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") // MySQL
}
