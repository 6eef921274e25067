package controllers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentController(t *testing.T) {
	app := setupTestApp(t)

	w := app.do(http.MethodPost, "/post", url.Values{"user": {"bob"}, "title": {"Hi"}, "content": {"First!"}})
	require.Equal(t, http.StatusFound, w.Code)

	t.Run("create comment redirects to the post", func(t *testing.T) {
		w := app.do(http.MethodPost, "/post/1/comment", url.Values{"user": {"carol"}, "content": {"Nice post"}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/post/1", w.Header().Get("Location"))
		assert.Equal(t, 1, app.engine.CommentCount())

		w = app.do(http.MethodGet, "/post/1", nil)
		assert.Contains(t, w.Body.String(), "Nice post")
	})

	t.Run("invalid comment re-renders the post", func(t *testing.T) {
		w := app.do(http.MethodPost, "/post/1/comment", url.Values{"user": {"carol"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Please enter a non-empty message.")
		assert.Contains(t, w.Body.String(), `value="carol"`)
		assert.Equal(t, 1, app.engine.CommentCount())
	})

	t.Run("comment on missing post is not found", func(t *testing.T) {
		w := app.do(http.MethodPost, "/post/999999/comment", url.Values{"user": {"eve"}, "content": {"Hello?"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 1, app.engine.CommentCount())
	})

	t.Run("get is not allowed", func(t *testing.T) {
		w := app.do(http.MethodGet, "/post/1/comment", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
