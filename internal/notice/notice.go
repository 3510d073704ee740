// Package notice carries the short, single-use message an operation leaves
// for the next response.
package notice

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func Successf(format string, args ...interface{}) *Notice {
	return &Notice{Kind: Success, Message: fmt.Sprintf(format, args...)}
}

func Errorf(format string, args ...interface{}) *Notice {
	return &Notice{Kind: Error, Message: fmt.Sprintf(format, args...)}
}

// Response is a bare notice with where to go next.
type Response struct {
	Notice     *Notice `json:"notice"`
	RedirectTo string  `json:"redirectTo,omitempty"`
}

func (rd *Response) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
