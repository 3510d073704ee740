package user

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/guard"
	"github.com/SergeyParamoshkin/blog/internal/model"
)

type ctxKey int8

const ctxKeyUser ctxKey = iota

// UserFrom returns the user UserCtx loaded, or nil.
func UserFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxKeyUser).(*model.User)

	return u
}

// UserCtx loads the User named by the userID URL parameter. Unknown ids send
// the client back to the user index.
func (a *API) UserCtx(r *http.Request) (*http.Request, render.Renderer) {
	id, param, ok := guard.IDParam(r, "userID")
	if !ok {
		return r, errresponse.ErrMissing(apperrors.NotFound("User", param), IndexPath)
	}

	u, err := a.svc.Show(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		return r, a.failure(err, IndexPath)
	}

	return r.WithContext(context.WithValue(r.Context(), ctxKeyUser, u)), nil
}
