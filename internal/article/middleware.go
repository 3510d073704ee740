package article

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

const ctxKeyArticle ctxKey = iota

// ArticleFrom returns the article ArticleCtx loaded, or nil.
func ArticleFrom(ctx context.Context) *model.Article {
	a, _ := ctx.Value(ctxKeyArticle).(*model.Article)

	return a
}

// ArticleCtx is a guard that loads the Article named by the articleID URL
// parameter onto the request context. In case the Article could not be
// found, we stop here and send the client back to the admin index.
func (a *API) ArticleCtx(r *http.Request) (*http.Request, render.Renderer) {
	id, param, ok := guard.IDParam(r, "articleID")
	if !ok {
		return r, errresponse.ErrMissing(apperrors.NotFound("Article", param), AdminIndexPath)
	}

	article, err := a.svc.Show(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		return r, a.failure(err, AdminIndexPath)
	}

	return r.WithContext(context.WithValue(r.Context(), ctxKeyArticle, article)), nil
}
