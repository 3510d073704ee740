package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/SergeyParamoshkin/blog/internal/model"
)

type ctxKey int8

const callerKey ctxKey = iota

// WithCaller returns a context carrying the calling user.
func WithCaller(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, callerKey, u)
}

// CallerFrom returns the calling user, or nil for anonymous requests.
func CallerFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(callerKey).(*model.User)

	return u
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}

// Authenticate resolves the bearer token, if any, into the caller. Requests
// without a usable token continue anonymously; the guards decide whether
// that is enough.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)

			return
		}

		u, err := s.Identify(r.Context(), token)
		switch {
		case errors.Is(err, ErrInvalidToken):
			s.logger.Debugw("ignoring invalid bearer token", "path", r.URL.Path)
		case err != nil:
			s.logger.Errorw("identify caller", "error", err)
		default:
			r = r.WithContext(WithCaller(r.Context(), u))
		}

		next.ServeHTTP(w, r)
	})
}
