package controllers

import (
	"net/http"

	"blabber/app/services"
	"blabber/app/views"

	"github.com/rs/zerolog"
)

// CommentController handles comment submissions.
type CommentController struct {
	responder
	comments *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService, renderer *views.Renderer, logger zerolog.Logger) *CommentController {
	return &CommentController{
		responder: responder{views: renderer, logger: logger},
		comments:  comments,
	}
}

// Create handles the comment form of a post.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		cc.sendError(w, r, "Post not found", http.StatusNotFound)
		return
	}
	if !cc.parseForm(w, r) {
		return
	}
	cc.respond(w, r, cc.comments.SubmitComment(r.Context(), id, r.PostForm))
}
