package article

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/articlerequest"
	"github.com/SergeyParamoshkin/blog/internal/articleresponse"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/guard"
	"github.com/SergeyParamoshkin/blog/internal/notice"
	"github.com/SergeyParamoshkin/blog/internal/policy"
)

const (
	AdminIndexPath  = "/admin/articles"
	PublicIndexPath = "/articles"
)

func adminArticlePath(id uint) string {
	return fmt.Sprintf("%s/%d", AdminIndexPath, id)
}

// API serves the admin article surface and the public reader surface.
type API struct {
	svc *Service
}

func NewAPI(svc *Service) *API {
	return &API{svc: svc}
}

// AdminRouter is mounted under /admin/articles. Every route requires a
// signed-in admin.
func (a *API) AdminRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Pipeline(a.svc.logger, guard.Authenticated, guard.Authorized(policy.Administer)))

	r.Get("/", a.List)
	r.Post("/", a.Create)

	r.Route("/{articleID}", func(r chi.Router) {
		r.Use(guard.Pipeline(a.svc.logger, a.ArticleCtx)) // Load the *Article on the request context
		r.Get("/", a.Get)
		r.Put("/", a.Update)
		r.Patch("/", a.Update)
		r.Delete("/", a.Delete)
		r.Post("/publish", a.Publish)
		r.Post("/unpublish", a.Unpublish)
		r.Get("/preview", a.Preview)
	})

	return r
}

// PublicRouter is mounted under /articles and open to anyone.
func (a *API) PublicRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", a.Feed)
	r.Get("/{articleID}", a.Read)

	return r
}

// List renders the admin index: published and drafts, newest first.
func (a *API) List(w http.ResponseWriter, r *http.Request) {
	listing, err := a.svc.List(r.Context(), auth.CallerFrom(r.Context()))
	if err != nil {
		a.render(w, r, a.failure(err, "/"))

		return
	}

	a.render(w, r, articleresponse.NewListingResponse(listing.Published, listing.Drafts))
}

// Create persists the posted Article, owned by the caller, and returns it
// back to the client as an acknowledgement.
func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	data := &articlerequest.ArticleRequest{}
	if err := render.Bind(r, data); err != nil {
		a.render(w, r, errresponse.ErrInvalidRequest(err))

		return
	}

	article, err := a.svc.Create(r.Context(), auth.CallerFrom(r.Context()), input(data))
	if err != nil {
		a.render(w, r, a.formFailure(err, "create", data))

		return
	}

	var n *notice.Notice
	if article.Published {
		n = notice.Successf("Article '%s' was successfully created and published!", article.Title)
	} else {
		n = notice.Successf("Article '%s' was successfully created as a draft.", article.Title)
	}

	render.Status(r, http.StatusCreated)
	a.render(w, r, articleresponse.NewResultResponse(article, n, adminArticlePath(article.ID)))
}

// Get returns the Article ArticleCtx put on the context. If we made it this
// far the Article is there; if it is not due to a bug, Recoverer saves us.
func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, articleresponse.NewArticleResponse(ArticleFrom(r.Context())))
}

// Update sets title, content and optionally the published flag.
func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	current := ArticleFrom(r.Context())

	data := &articlerequest.ArticleRequest{}
	if err := render.Bind(r, data); err != nil {
		a.render(w, r, errresponse.ErrInvalidRequest(err))

		return
	}

	article, err := a.svc.Update(r.Context(), auth.CallerFrom(r.Context()), current.ID, input(data))
	if err != nil {
		a.render(w, r, a.formFailure(err, "update", data))

		return
	}

	var n *notice.Notice
	if article.Published {
		n = notice.Successf("Article '%s' was successfully updated and is published.", article.Title)
	} else {
		n = notice.Successf("Article '%s' was successfully updated and saved as draft.", article.Title)
	}

	a.render(w, r, articleresponse.NewResultResponse(article, n, adminArticlePath(article.ID)))
}

// Delete removes the Article in either state.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	article, err := a.svc.Destroy(r.Context(), auth.CallerFrom(r.Context()), ArticleFrom(r.Context()).ID)
	if err != nil {
		a.render(w, r, a.failure(err, AdminIndexPath))

		return
	}

	a.render(w, r, articleresponse.NewResultResponse(article,
		notice.Successf("Article '%s' was successfully deleted.", article.Title), AdminIndexPath))
}

// Publish makes the Article live and stamps published_at.
func (a *API) Publish(w http.ResponseWriter, r *http.Request) {
	article, err := a.svc.Publish(r.Context(), auth.CallerFrom(r.Context()), ArticleFrom(r.Context()).ID)
	if err != nil {
		a.render(w, r, a.failure(err, AdminIndexPath))

		return
	}

	a.render(w, r, articleresponse.NewResultResponse(article,
		notice.Successf("Article '%s' was successfully published and is now live on the blog.", article.Title), AdminIndexPath))
}

// Unpublish turns the Article back into a draft.
func (a *API) Unpublish(w http.ResponseWriter, r *http.Request) {
	article, err := a.svc.Unpublish(r.Context(), auth.CallerFrom(r.Context()), ArticleFrom(r.Context()).ID)
	if err != nil {
		a.render(w, r, a.failure(err, AdminIndexPath))

		return
	}

	a.render(w, r, articleresponse.NewResultResponse(article,
		notice.Successf("Article '%s' was successfully unpublished and is now a draft.", article.Title), AdminIndexPath))
}

// Preview shows any Article the way a reader would see it.
func (a *API) Preview(w http.ResponseWriter, r *http.Request) {
	article, err := a.svc.Preview(r.Context(), auth.CallerFrom(r.Context()), ArticleFrom(r.Context()).ID)
	if err != nil {
		a.render(w, r, a.failure(err, AdminIndexPath))

		return
	}

	a.render(w, r, articleresponse.NewPublicArticleResponse(article))
}

// Feed lists published articles, newest first.
func (a *API) Feed(w http.ResponseWriter, r *http.Request) {
	articles, err := a.svc.Feed(r.Context())
	if err != nil {
		a.render(w, r, a.failure(err, PublicIndexPath))

		return
	}

	if err := render.RenderList(w, r, articleresponse.NewPublicArticleListResponse(articles)); err != nil {
		a.render(w, r, errresponse.ErrRender(err))
	}
}

// Read shows a published Article. Drafts and unknown ids look the same.
func (a *API) Read(w http.ResponseWriter, r *http.Request) {
	id, param, ok := guard.IDParam(r, "articleID")
	if !ok {
		a.render(w, r, errresponse.ErrMissing(apperrors.NotFound("Article", param), PublicIndexPath))

		return
	}

	article, err := a.svc.Read(r.Context(), id)
	if err != nil {
		a.render(w, r, a.failure(err, PublicIndexPath))

		return
	}

	a.render(w, r, articleresponse.NewPublicArticleResponse(article))
}

func input(data *articlerequest.ArticleRequest) Input {
	return Input{Title: data.Title, Content: data.Content, Published: data.Published}
}

// formFailure re-presents a rejected create or update with its field errors.
func (a *API) formFailure(err error, action string, data *articlerequest.ArticleRequest) render.Renderer {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return errresponse.ErrForm(verr,
			fmt.Sprintf("Unable to %s article. %s must be fixed.", action, apperrors.Pluralize(verr.Count(), "error")),
			data)
	}

	return a.failure(err, AdminIndexPath)
}

func (a *API) failure(err error, redirectTo string) render.Renderer {
	rd := errresponse.FromError(err, redirectTo)
	if resp, ok := rd.(*errresponse.ErrResponse); ok && resp.HTTPStatusCode >= http.StatusInternalServerError {
		a.svc.logger.Errorw("article request failed", "error", err)
	}

	return rd
}

func (a *API) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		a.svc.logger.Errorw("render response", "error", err)
	}
}

