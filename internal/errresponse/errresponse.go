package errresponse

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/notice"
)

//--
// Error response payloads & renderers
//--

// ErrResponse renderer type for handling all sorts of errors.
//
// Notice and RedirectTo tell the client what to show and where to go next;
// Errors and ErrorCount carry field-level validation detail.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	AppCode    int64  `json:"code,omitempty"`  // application-specific error code
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging

	Notice     *notice.Notice      `json:"notice,omitempty"`
	RedirectTo string              `json:"redirectTo,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	ErrorCount int                 `json:"errorCount,omitempty"`
	Input      interface{}         `json:"input,omitempty"` // the rejected form, sent back as submitted
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)

	return nil
}

// Application codes.
const (
	CodeValidation int64 = iota + 1
	CodeNotFound
	CodeUnauthenticated
	CodeForbidden
	CodeTransition
)

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrRender(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Error rendering response.",
		ErrorText:      err.Error(),
	}
}

// ErrInternal hides err from the client.
func ErrInternal(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
	}
}

// ErrValidation re-presents a rejected form: per-field messages, their count,
// and message as an error notice.
func ErrValidation(verr *apperrors.ValidationError, message string) render.Renderer {
	return &ErrResponse{
		Err:            verr,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Validation failed.",
		AppCode:        CodeValidation,
		Notice:         notice.Errorf("%s", message),
		Errors:         verr.ByField(),
		ErrorCount:     verr.Count(),
	}
}

// ErrForm is ErrValidation that also hands back what the client submitted.
func ErrForm(verr *apperrors.ValidationError, message string, input interface{}) render.Renderer {
	resp := ErrValidation(verr, message).(*ErrResponse)
	resp.Input = input

	return resp
}

// ErrMissing sends the client back to redirectTo with a not-found notice.
func ErrMissing(err *apperrors.NotFoundError, redirectTo string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		StatusText:     "Resource not found.",
		AppCode:        CodeNotFound,
		Notice:         notice.Errorf("%s", err.Error()),
		RedirectTo:     redirectTo,
	}
}

// ErrAuthorization sends anonymous callers to sign in and everyone else
// back to the root.
func ErrAuthorization(err *apperrors.AuthorizationError) render.Renderer {
	if err.Reason == apperrors.Unauthenticated {
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnauthorized,
			StatusText:     "Unauthorized.",
			AppCode:        CodeUnauthenticated,
			Notice:         notice.Errorf("%s", err.Error()),
			RedirectTo:     "/sessions",
		}
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusForbidden,
		StatusText:     "Forbidden.",
		AppCode:        CodeForbidden,
		Notice:         notice.Errorf("%s", err.Error()),
		RedirectTo:     "/",
	}
}

// ErrTransition reports a rejected publish or unpublish.
func ErrTransition(err *apperrors.TransitionError, redirectTo string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Transition rejected.",
		AppCode:        CodeTransition,
		Notice:         notice.Errorf("%s", err.Error()),
		RedirectTo:     redirectTo,
	}
}

// FromError maps any error from the services onto a response. redirectTo is
// the listing a client falls back to.
func FromError(err error, redirectTo string) render.Renderer {
	var (
		verr  *apperrors.ValidationError
		nferr *apperrors.NotFoundError
		aerr  *apperrors.AuthorizationError
		terr  *apperrors.TransitionError
	)

	switch {
	case errors.As(err, &terr):
		return ErrTransition(terr, redirectTo)
	case errors.As(err, &verr):
		return ErrValidation(verr, fmt.Sprintf("%s must be fixed.", apperrors.Pluralize(verr.Count(), "error")))
	case errors.As(err, &nferr):
		return ErrMissing(nferr, redirectTo)
	case errors.As(err, &aerr):
		return ErrAuthorization(aerr)
	default:
		return ErrInternal(err)
	}
}

// ErrUnauthorized is a failed sign-in or sign-out.
func ErrUnauthorized(err error, message string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     "Unauthorized.",
		AppCode:        CodeUnauthenticated,
		Notice:         notice.Errorf("%s", message),
	}
}
