// Package policy decides whether a caller may run an operation. The decision
// depends only on the caller and the operation.
package policy

import (
	"github.com/SergeyParamoshkin/blog/internal/apperrors"
	"github.com/SergeyParamoshkin/blog/internal/model"
)

// Operation names something a caller can do.
type Operation string

// Admin surface.
const (
	ListArticles     Operation = "articles.list"
	ShowArticle      Operation = "articles.show"
	CreateArticle    Operation = "articles.create"
	UpdateArticle    Operation = "articles.update"
	DestroyArticle   Operation = "articles.destroy"
	PublishArticle   Operation = "articles.publish"
	UnpublishArticle Operation = "articles.unpublish"
	PreviewArticle   Operation = "articles.preview"

	ListUsers   Operation = "users.list"
	ShowUser    Operation = "users.show"
	PromoteUser Operation = "users.promote"
	DemoteUser  Operation = "users.demote"
	DestroyUser Operation = "users.destroy"

	// Administer stands for the admin area as a whole.
	Administer Operation = "admin"
)

// Public surface.
const (
	ReadFeed    Operation = "feed.list"
	ReadArticle Operation = "feed.show"
)

// Public reports whether anyone, signed in or not, may run the operation.
func (o Operation) Public() bool {
	return o == ReadFeed || o == ReadArticle
}

// Authorize returns nil when caller may run op, and an
// *apperrors.AuthorizationError otherwise. A nil caller is anonymous.
// Authorship of the target record plays no part.
func Authorize(caller *model.User, op Operation) error {
	if op.Public() {
		return nil
	}

	if caller == nil {
		return &apperrors.AuthorizationError{Reason: apperrors.Unauthenticated, Operation: string(op)}
	}

	if !caller.IsAdmin() {
		return &apperrors.AuthorizationError{Reason: apperrors.Forbidden, Operation: string(op)}
	}

	return nil
}
