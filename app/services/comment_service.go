package services

import (
	"context"
	"net/url"

	"blabber/app/gateway"
	"blabber/app/models"
	"blabber/app/repositories"

	"github.com/rs/zerolog"
)

// CommentService handles comment submissions.
type CommentService struct {
	gw     *gateway.Gateway
	posts  *PostService
	logger zerolog.Logger
}

// NewCommentService creates a CommentService. Invalid submissions are
// re-rendered through posts.
func NewCommentService(gw *gateway.Gateway, posts *PostService, logger zerolog.Logger) *CommentService {
	return &CommentService{
		gw:     gw,
		posts:  posts,
		logger: logger.With().Str("service", "comment").Logger(),
	}
}

// SubmitComment validates the submitted fields and adds a comment to the
// post. Invalid input re-renders the post page with the errors. A missing
// post yields NotFound and nothing is written.
func (s *CommentService) SubmitComment(ctx context.Context, postID uint64, fields url.Values) Outcome {
	form := models.NewCommentForm(fields)
	if state := form.Validate(); state.HasErrors() {
		return s.posts.ShowPost(ctx, postID, state)
	}

	ok, err := gateway.Submit(ctx, s.gw, func(e repositories.Engine) (bool, error) {
		return e.CreateComment(postID, form.User, form.Content)
	})
	if err != nil {
		return logFailure(s.logger, failed(err), "create comment")
	}
	if !ok {
		return notFound()
	}
	s.logger.Debug().Uint64("post_id", postID).Str("user", form.User).Msg("Comment created")
	return redirected(postID)
}
