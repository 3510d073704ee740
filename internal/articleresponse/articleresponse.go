package articleresponse

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blog/internal/model"
	"github.com/SergeyParamoshkin/blog/internal/notice"
	"github.com/SergeyParamoshkin/blog/internal/userpayload"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ArticleResponse is the admin payload for the Article data model.
//
// Render is called on the response first and then on its Author, top-down,
// like a http handler middleware chain.
type ArticleResponse struct {
	*model.Article

	Author *userpayload.UserPayload `json:"author,omitempty"`

	// computed from Published
	Status string `json:"status"`
}

func NewArticleResponse(article *model.Article) *ArticleResponse {
	resp := &ArticleResponse{Article: article}
	if article.User != nil {
		resp.Author = userpayload.NewUserPayloadResponse(article.User)
	}

	return resp
}

func (rd *ArticleResponse) Render(w http.ResponseWriter, r *http.Request) error {
	rd.Status = StatusPublished
	if rd.IsDraft() {
		rd.Status = StatusDraft
	}

	return nil
}

// ListingResponse is the admin index, split by state.
type ListingResponse struct {
	Published []*ArticleResponse `json:"published"`
	Drafts    []*ArticleResponse `json:"drafts"`
}

func NewListingResponse(published, drafts []*model.Article) *ListingResponse {
	resp := &ListingResponse{
		Published: make([]*ArticleResponse, 0, len(published)),
		Drafts:    make([]*ArticleResponse, 0, len(drafts)),
	}
	for _, a := range published {
		resp.Published = append(resp.Published, NewArticleResponse(a))
	}
	for _, a := range drafts {
		resp.Drafts = append(resp.Drafts, NewArticleResponse(a))
	}

	return resp
}

func (rd *ListingResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for _, list := range [][]*ArticleResponse{rd.Published, rd.Drafts} {
		for _, a := range list {
			if err := a.Render(w, r); err != nil {
				return err
			}
		}
	}

	return nil
}

// ResultResponse is an article together with the notice an operation left.
type ResultResponse struct {
	Article    *ArticleResponse `json:"article,omitempty"`
	Notice     *notice.Notice   `json:"notice"`
	RedirectTo string           `json:"redirectTo,omitempty"`
}

func NewResultResponse(article *model.Article, n *notice.Notice, redirectTo string) *ResultResponse {
	return &ResultResponse{Article: NewArticleResponse(article), Notice: n, RedirectTo: redirectTo}
}

func (rd *ResultResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// PublicArticleResponse is what readers see: no draft state, no owner id.
type PublicArticleResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewPublicArticleResponse(article *model.Article) *PublicArticleResponse {
	return &PublicArticleResponse{
		ID:          article.ID,
		Title:       article.Title,
		Content:     article.Content,
		PublishedAt: article.PublishedAt,
		CreatedAt:   article.CreatedAt,
	}
}

func NewPublicArticleListResponse(articles []*model.Article) []render.Renderer {
	list := []render.Renderer{}
	for _, article := range articles {
		list = append(list, NewPublicArticleResponse(article))
	}

	return list
}

func (rd *PublicArticleResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
