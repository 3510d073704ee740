package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/guard"
	"github.com/SergeyParamoshkin/blog/internal/notice"
	"github.com/SergeyParamoshkin/blog/internal/policy"
	"github.com/SergeyParamoshkin/blog/internal/userpayload"
)

const IndexPath = "/admin/users"

// API serves user management in the admin area.
type API struct {
	svc *Service
}

func NewAPI(svc *Service) *API {
	return &API{svc: svc}
}

// AdminRouter is mounted under /admin/users.
func (a *API) AdminRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(guard.Pipeline(a.svc.logger, guard.Authenticated, guard.Authorized(policy.Administer)))

	r.Get("/", a.List)
	r.Route("/{userID}", func(r chi.Router) {
		r.Use(guard.Pipeline(a.svc.logger, a.UserCtx))
		r.Get("/", a.Get)
		r.Delete("/", a.Delete)
		r.Put("/admin", a.Promote)
		r.Delete("/admin", a.Demote)
	})

	return r
}

// List renders all users. ?role=admin or ?role=user narrows the list.
func (a *API) List(w http.ResponseWriter, r *http.Request) {
	var scopes []Scope

	switch r.URL.Query().Get("role") {
	case "admin":
		scopes = append(scopes, Admins)
	case "user":
		scopes = append(scopes, RegularUsers)
	}

	users, err := a.svc.List(r.Context(), auth.CallerFrom(r.Context()), scopes...)
	if err != nil {
		a.render(w, r, a.failure(err, "/"))

		return
	}

	if err := render.RenderList(w, r, userpayload.NewUserListResponse(users)); err != nil {
		a.render(w, r, errresponse.ErrRender(err))
	}
}

func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())

	a.render(w, r, userpayload.NewUserPayloadResponse(u))
}

// Promote grants admin privileges.
func (a *API) Promote(w http.ResponseWriter, r *http.Request) {
	id := UserFrom(r.Context()).ID

	u, err := a.svc.Promote(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.render(w, r, a.failure(err, IndexPath))

		return
	}

	a.render(w, r, &userpayload.UserResponse{
		User:       userpayload.NewUserPayloadResponse(u),
		Notice:     notice.Successf("%s is now an admin.", u.Email),
		RedirectTo: IndexPath,
	})
}

// Demote revokes admin privileges.
func (a *API) Demote(w http.ResponseWriter, r *http.Request) {
	id := UserFrom(r.Context()).ID

	u, err := a.svc.Demote(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.render(w, r, a.failure(err, IndexPath))

		return
	}

	a.render(w, r, &userpayload.UserResponse{
		User:       userpayload.NewUserPayloadResponse(u),
		Notice:     notice.Successf("%s is no longer an admin.", u.Email),
		RedirectTo: IndexPath,
	})
}

// Delete removes the user together with every article they own.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	id := UserFrom(r.Context()).ID

	u, articles, err := a.svc.Destroy(r.Context(), auth.CallerFrom(r.Context()), id)
	if err != nil {
		a.render(w, r, a.failure(err, IndexPath))

		return
	}

	a.render(w, r, &userpayload.UserResponse{
		User: userpayload.NewUserPayloadResponse(u),
		Notice: notice.Successf("User '%s' was successfully deleted along with %s.",
			u.Email, apperrors.Pluralize(int(articles), "article")),
		RedirectTo: IndexPath,
	})
}

func (a *API) failure(err error, redirectTo string) render.Renderer {
	rd := errresponse.FromError(err, redirectTo)
	if resp, ok := rd.(*errresponse.ErrResponse); ok && resp.HTTPStatusCode >= http.StatusInternalServerError {
		a.svc.logger.Errorw("user request failed", "error", err)
	}

	return rd
}

func (a *API) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		a.svc.logger.Errorw("render response", "error", err)
	}
}
