// client_integration_test.go
//go:build integration
// +build integration

package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a server started with -seed on localhost:3333.
var c = Client{
	Addr:   "http://localhost:3333",
	Client: http.Client{},
}

func TestPingIntegration(t *testing.T) {
	s, err := c.Ping()
	require.NoError(t, err)
	assert.Equal(t, "pong", s)
}

func TestPublishLifecycleIntegration(t *testing.T) {
	admin := c
	_, err := admin.SignIn("admin@example.com", "password123")
	require.NoError(t, err)
	defer admin.SignOut()

	created, err := admin.CreateArticle(ArticleInput{Title: "Integration draft", Content: "Written by the integration test."})
	require.NoError(t, err)
	id := created.Article.ID
	defer admin.DeleteArticle(id)

	_, err = c.Article(id)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	published, err := admin.Publish(id)
	require.NoError(t, err)
	require.NotNil(t, published.Article.PublishedAt)

	got, err := c.Article(id)
	require.NoError(t, err)
	assert.Equal(t, "Integration draft", got.Title)

	_, err = admin.Unpublish(id)
	require.NoError(t, err)
}
