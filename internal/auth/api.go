package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/errresponse"
	"github.com/SergeyParamoshkin/blog/internal/notice"
	"github.com/SergeyParamoshkin/blog/internal/userpayload"
)

// API serves sign-up, sign-in and sign-out.
type API struct {
	svc *Service
}

func NewAPI(svc *Service) *API {
	return &API{svc: svc}
}

// Register creates an account. New accounts are never admins.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	data := &userpayload.CredentialsRequest{}
	if err := render.Bind(r, data); err != nil {
		a.render(w, r, errresponse.ErrInvalidRequest(err))

		return
	}

	u, err := a.svc.Register(r.Context(), data.Email, data.Password)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			a.render(w, r, errresponse.ErrValidation(verr,
				fmt.Sprintf("Unable to sign up. %s must be fixed.", apperrors.Pluralize(verr.Count(), "error"))))

			return
		}

		a.svc.logger.Errorw("register", "error", err)
		a.render(w, r, errresponse.ErrInternal(err))

		return
	}

	render.Status(r, http.StatusCreated)
	a.render(w, r, &userpayload.UserResponse{
		User:       userpayload.NewUserPayloadResponse(u),
		Notice:     notice.Successf("Welcome! You have signed up successfully."),
		RedirectTo: "/sessions",
	})
}

// SignIn exchanges credentials for a bearer token.
func (a *API) SignIn(w http.ResponseWriter, r *http.Request) {
	data := &userpayload.CredentialsRequest{}
	if err := render.Bind(r, data); err != nil {
		a.render(w, r, errresponse.ErrInvalidRequest(err))

		return
	}

	session, err := a.svc.SignIn(r.Context(), data.Email, data.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.render(w, r, errresponse.ErrUnauthorized(err, "Invalid email or password."))

			return
		}

		a.svc.logger.Errorw("sign in", "error", err)
		a.render(w, r, errresponse.ErrInternal(err))

		return
	}

	a.render(w, r, &userpayload.SessionResponse{
		Token:      session.Token,
		ExpiresAt:  session.ExpiresAt,
		User:       userpayload.NewUserPayloadResponse(session.User),
		Notice:     notice.Successf("Signed in successfully."),
		RedirectTo: AfterSignInPath(session.User),
	})
}

// SignOut revokes the bearer token the request carries.
func (a *API) SignOut(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		a.render(w, r, errresponse.ErrUnauthorized(ErrInvalidToken, "You are not signed in."))

		return
	}

	if err := a.svc.SignOut(r.Context(), token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			a.render(w, r, errresponse.ErrUnauthorized(err, "You are not signed in."))

			return
		}

		a.svc.logger.Errorw("sign out", "error", err)
		a.render(w, r, errresponse.ErrInternal(err))

		return
	}

	a.render(w, r, &notice.Response{
		Notice:     notice.Successf("Signed out successfully."),
		RedirectTo: "/",
	})
}

func (a *API) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		a.svc.logger.Errorw("render response", "error", err)
	}
}
