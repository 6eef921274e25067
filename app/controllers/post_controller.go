package controllers

import (
	"net/http"

	"blabber/app/services"
	"blabber/app/views"

	"github.com/rs/zerolog"
)

// PostController handles the front page, post pages and post submissions.
type PostController struct {
	responder
	posts *services.PostService
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, renderer *views.Renderer, logger zerolog.Logger) *PostController {
	return &PostController{
		responder: responder{views: renderer, logger: logger},
		posts:     posts,
	}
}

// Index shows the front page.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	pc.respond(w, r, pc.posts.FrontPage(r.Context(), nil))
}

// Show shows a post and its latest comments.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		pc.sendError(w, r, "Post not found", http.StatusNotFound)
		return
	}
	pc.respond(w, r, pc.posts.ShowPost(r.Context(), id, nil))
}

// Create handles the new post form.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	if !pc.parseForm(w, r) {
		return
	}
	pc.respond(w, r, pc.posts.SubmitPost(r.Context(), r.PostForm))
}

// Dump writes the store contents as plain text.
func (pc *PostController) Dump(w http.ResponseWriter, r *http.Request) {
	pc.respond(w, r, pc.posts.Dump(r.Context()))
}
