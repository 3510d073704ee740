package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/policy"
)

// Service is the admin area's user management.
type Service struct {
	store  *GormStore
	logger *zap.SugaredLogger
}

func NewService(store *GormStore, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns users, optionally narrowed to Admins or RegularUsers.
func (s *Service) List(ctx context.Context, caller *model.User, scopes ...Scope) ([]*model.User, error) {
	if err := policy.Authorize(caller, policy.ListUsers); err != nil {
		return nil, err
	}

	return s.store.Find(ctx, scopes...)
}

func (s *Service) Show(ctx context.Context, caller *model.User, id uint) (*model.User, error) {
	if err := policy.Authorize(caller, policy.ShowUser); err != nil {
		return nil, err
	}

	return s.store.FindByID(ctx, id)
}

// Promote makes the user an admin.
func (s *Service) Promote(ctx context.Context, caller *model.User, id uint) (*model.User, error) {
	return s.setAdmin(ctx, caller, id, true, policy.PromoteUser)
}

// Demote removes the user's admin privileges.
func (s *Service) Demote(ctx context.Context, caller *model.User, id uint) (*model.User, error) {
	return s.setAdmin(ctx, caller, id, false, policy.DemoteUser)
}

func (s *Service) setAdmin(ctx context.Context, caller *model.User, id uint, admin bool, op policy.Operation) (*model.User, error) {
	if err := policy.Authorize(caller, op); err != nil {
		return nil, err
	}

	u, err := s.store.SetAdmin(ctx, id, admin)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("user admin flag changed", "user_id", id, "admin", admin, "by", caller.ID)

	return u, nil
}

// Destroy deletes the user and their articles.
func (s *Service) Destroy(ctx context.Context, caller *model.User, id uint) (*model.User, int64, error) {
	if err := policy.Authorize(caller, policy.DestroyUser); err != nil {
		return nil, 0, err
	}

	u, articles, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Infow("user destroyed", "user_id", id, "articles", articles, "by", caller.ID)

	return u, articles, nil
}
