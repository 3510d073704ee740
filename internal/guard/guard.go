// Package guard runs an ordered list of checks in front of a handler. Each
// check either lets the request through or ends it with a response.
package guard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/policy"
)

// Guard returns the request to continue with, which may carry more context
// than the one it got, or a non-nil response that ends the request.
type Guard func(r *http.Request) (*http.Request, render.Renderer)

// Pipeline runs guards in order and calls the handler only if all of them
// let the request through.
func Pipeline(logger *zap.SugaredLogger, guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range guards {
				var halt render.Renderer
				if r, halt = g(r); halt != nil {
					if err := render.Render(w, r, halt); err != nil {
						logger.Errorw("render guard response", "error", err)
					}

					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticated stops anonymous callers.
func Authenticated(r *http.Request) (*http.Request, render.Renderer) {
	if auth.CallerFrom(r.Context()) == nil {
		return r, errresponse.ErrAuthorization(&apperrors.AuthorizationError{Reason: apperrors.Unauthenticated})
	}

	return r, nil
}

// Authorized stops callers the policy does not allow to run op.
func Authorized(op policy.Operation) Guard {
	return func(r *http.Request) (*http.Request, render.Renderer) {
		err := policy.Authorize(auth.CallerFrom(r.Context()), op)
		if err == nil {
			return r, nil
		}

		var aerr *apperrors.AuthorizationError
		if errors.As(err, &aerr) {
			return r, errresponse.ErrAuthorization(aerr)
		}

		return r, errresponse.ErrInternal(err)
	}
}

// IDParam reads the named URL parameter as a positive record id. The raw
// parameter is returned too so a miss can name what was asked for.
func IDParam(r *http.Request, name string) (uint, string, bool) {
	param := chi.URLParam(r, name)

	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil || id == 0 {
		return 0, param, false
	}

	return uint(id), param, true
}
