package userpayload

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/notice"
)

//--
// Request and Response payloads for users and sessions.
//--

// UserPayload renders a user without its credential hash.
type UserPayload struct {
	*model.User
	Role string `json:"role"`
}

func NewUserPayloadResponse(user *model.User) *UserPayload {
	return &UserPayload{User: user, Role: role(user)}
}

func NewUserListResponse(users []*model.User) []render.Renderer {
	list := []render.Renderer{}
	for _, u := range users {
		list = append(list, NewUserPayloadResponse(u))
	}

	return list
}

func (u *UserPayload) Render(w http.ResponseWriter, r *http.Request) error {
	u.Role = role(u.User)

	return nil
}

func role(u *model.User) string {
	if u.IsAdmin() {
		return "admin"
	}

	return "user"
}

// CredentialsRequest is the body of sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *CredentialsRequest) Bind(r *http.Request) error {
	if c.Email == "" && c.Password == "" {
		return errors.New("missing required credential fields")
	}

	return nil
}

// UserResponse is a user together with the notice an operation left.
type UserResponse struct {
	User       *UserPayload   `json:"user"`
	Notice     *notice.Notice `json:"notice,omitempty"`
	RedirectTo string         `json:"redirectTo,omitempty"`
}

func (rd *UserResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// SessionResponse hands out a bearer token after sign-in.
type SessionResponse struct {
	Token      string         `json:"token"`
	ExpiresAt  time.Time      `json:"expiresAt"`
	User       *UserPayload   `json:"user"`
	Notice     *notice.Notice `json:"notice,omitempty"`
	RedirectTo string         `json:"redirectTo"`
}

func (rd *SessionResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
