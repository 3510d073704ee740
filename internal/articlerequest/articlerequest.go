package articlerequest

import (
	"errors"
	"net/http"
)

// ArticleRequest is the request payload for creating and updating an
// Article. The id and the author are never taken from the client.
type ArticleRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published,omitempty"`

	ProtectedID     uint `json:"id"`     // override 'id' json to have more control
	ProtectedUserID uint `json:"userId"` // the author is always the caller
}

func (a *ArticleRequest) Bind(r *http.Request) error {
	if a.Title == "" && a.Content == "" && a.Published == nil {
		return errors.New("missing required Article fields.")
	}

	// just a post-process after a decode..
	a.ProtectedID = 0
	a.ProtectedUserID = 0

	return nil
}
