// Package auth registers users, signs them in with bearer tokens and turns
// a token back into the calling user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
)

// UserStore is what auth needs from user persistence.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Registration is the sign-up form.
type Registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=128"`
}

// Session is a signed-in user and their bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type Option func(*Service)

// WithClock replaces time.Now when stamping tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	users    UserStore
	denylist Denylist
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func NewService(users UserStore, denylist Denylist, secret string, ttl time.Duration, logger *zap.SugaredLogger, opts ...Option) (*Service, error) {
	if users == nil {
		panic("auth: nil UserStore")
	}
	if secret == "" {
		return nil, errors.New("auth: token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &Service{
		users:    users,
		denylist: denylist,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Register creates a regular (non-admin) user with a hashed password.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	if err := validation.Struct(Registration{Email: email, Password: password}); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", u.ID)

	return u, nil
}

// SignIn checks the password and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		var nferr *apperrors.NotFoundError
		if errors.As(err, &nferr) {
			s.logger.Warnw("sign in failed: unknown email")

			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warnw("sign in failed: wrong password", "user_id", u.ID)

		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("user signed in", "user_id", u.ID)

	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// Identify returns the user a token was issued to.
func (s *Service) Identify(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, uint(id))
	if err != nil {
		var nferr *apperrors.NotFoundError
		if errors.As(err, &nferr) {
			return nil, ErrInvalidToken
		}

		return nil, err
	}

	return u, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}

	s.logger.Infow("user signed out", "user_id", claims.Subject)

	return nil
}

// AfterSignInPath is where a freshly signed-in user lands.
func AfterSignInPath(u *model.User) string {
	if u.IsAdmin() {
		return "/admin/articles"
	}

	return "/"
}
