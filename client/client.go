// Package client talks to the blog service over HTTP.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	http.Client
	Addr string

	// Token is sent as a bearer token once set, e.g. by SignIn.
	Token string
}

type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	Role  string `json:"role"`
}

type Article struct {
	ID          uint       `json:"id"`
	UserID      uint       `json:"userId,omitempty"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	Status      string     `json:"status,omitempty"`
	Author      *User      `json:"author,omitempty"`
}

// ArticleInput is the body of create and update.
type ArticleInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published,omitempty"`
}

// Listing is the admin index.
type Listing struct {
	Published []Article `json:"published"`
	Drafts    []Article `json:"drafts"`
}

// Result is what a write on the admin surface answers with.
type Result struct {
	Article    *Article `json:"article"`
	Notice     *Notice  `json:"notice"`
	RedirectTo string   `json:"redirectTo"`
}

// Error is a non-2xx answer.
type Error struct {
	StatusCode int                 `json:"-"`
	Status     string              `json:"status"`
	ErrorText  string              `json:"error"`
	Notice     *Notice             `json:"notice"`
	RedirectTo string              `json:"redirectTo"`
	Errors     map[string][]string `json:"errors"`
	ErrorCount int                 `json:"errorCount"`
}

func (e *Error) Error() string {
	if e.Notice != nil {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Notice.Message)
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, e.Status)
}

func (c *Client) Ping() (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.Addr+"/ping", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), err
}

// SignIn keeps the issued token on the client and returns the signed-in user.
func (c *Client) SignIn(email, password string) (*User, error) {
	var session struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}

	creds := map[string]string{"email": email, "password": password}
	if err := c.call(http.MethodPost, "/sessions", creds, &session); err != nil {
		return nil, err
	}
	c.Token = session.Token

	return session.User, nil
}

// SignOut revokes the token and forgets it.
func (c *Client) SignOut() error {
	if err := c.call(http.MethodDelete, "/sessions", nil, nil); err != nil {
		return err
	}
	c.Token = ""

	return nil
}

// Feed lists published articles, newest first.
func (c *Client) Feed() ([]Article, error) {
	var articles []Article

	return articles, c.call(http.MethodGet, "/articles", nil, &articles)
}

// Article reads a published article.
func (c *Client) Article(id uint) (*Article, error) {
	var a Article

	return &a, c.call(http.MethodGet, fmt.Sprintf("/articles/%d", id), nil, &a)
}

func (c *Client) AdminArticles() (*Listing, error) {
	var l Listing

	return &l, c.call(http.MethodGet, "/admin/articles", nil, &l)
}

func (c *Client) CreateArticle(in ArticleInput) (*Result, error) {
	var res Result

	return &res, c.call(http.MethodPost, "/admin/articles", in, &res)
}

func (c *Client) UpdateArticle(id uint, in ArticleInput) (*Result, error) {
	var res Result

	return &res, c.call(http.MethodPut, fmt.Sprintf("/admin/articles/%d", id), in, &res)
}

func (c *Client) DeleteArticle(id uint) (*Result, error) {
	var res Result

	return &res, c.call(http.MethodDelete, fmt.Sprintf("/admin/articles/%d", id), nil, &res)
}

func (c *Client) Publish(id uint) (*Result, error) {
	var res Result

	return &res, c.call(http.MethodPost, fmt.Sprintf("/admin/articles/%d/publish", id), nil, &res)
}

func (c *Client) Unpublish(id uint) (*Result, error) {
	var res Result

	return &res, c.call(http.MethodPost, fmt.Sprintf("/admin/articles/%d/unpublish", id), nil, &res)
}

func (c *Client) call(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.Addr+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil && err != io.EOF {
			return fmt.Errorf("%d: decode error body: %w", resp.StatusCode, err)
		}

		return apiErr
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
