package services

import (
	"context"
	"net/url"

	"blabber/app/gateway"
	"blabber/app/models"
	"blabber/app/repositories"

	"github.com/rs/zerolog"
)

// Default page limits.
const (
	DefaultMaxPosts    = 100
	DefaultMaxComments = 100
)

// PostService handles the front page, post pages and post submissions.
type PostService struct {
	gw          *gateway.Gateway
	maxPosts    int
	maxComments int
	logger      zerolog.Logger
}

// NewPostService creates a PostService. Non-positive limits fall back to
// the defaults.
func NewPostService(gw *gateway.Gateway, maxPosts, maxComments int, logger zerolog.Logger) *PostService {
	if maxPosts <= 0 {
		maxPosts = DefaultMaxPosts
	}
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}
	return &PostService{
		gw:          gw,
		maxPosts:    maxPosts,
		maxComments: maxComments,
		logger:      logger.With().Str("service", "post").Logger(),
	}
}

// FrontPage renders the latest posts. form carries the state of a failed
// submission, or is nil when the page is requested directly.
func (s *PostService) FrontPage(ctx context.Context, form *models.FormState) Outcome {
	if form == nil {
		form = models.EmptyForm()
	}
	posts, err := gateway.Submit(ctx, s.gw, func(e repositories.Engine) ([]models.FrontPageEntry, error) {
		return e.FetchFrontPage(s.maxPosts)
	})
	if err != nil {
		return s.fail(err, "fetch front page")
	}
	return rendered(ViewIndex, &IndexPage{Posts: posts, Form: form})
}

// ShowPost renders a post with its latest comments.
func (s *PostService) ShowPost(ctx context.Context, postID uint64, form *models.FormState) Outcome {
	if form == nil {
		form = models.EmptyForm()
	}
	detail, err := gateway.Submit(ctx, s.gw, func(e repositories.Engine) (*models.PostDetail, error) {
		return e.FetchPost(postID, s.maxComments)
	})
	if err != nil {
		return s.fail(err, "fetch post")
	}
	if detail == nil {
		return notFound()
	}
	return rendered(ViewPost, &PostPage{Post: detail, Form: form})
}

// SubmitPost validates the submitted fields and creates a post. Invalid
// input re-renders the front page with the errors.
func (s *PostService) SubmitPost(ctx context.Context, fields url.Values) Outcome {
	form := models.NewPostForm(fields)
	if state := form.Validate(); state.HasErrors() {
		return s.FrontPage(ctx, state)
	}

	id, err := gateway.Submit(ctx, s.gw, func(e repositories.Engine) (uint64, error) {
		return e.CreatePost(form.User, form.Title, form.Content)
	})
	if err != nil {
		return s.fail(err, "create post")
	}
	s.logger.Debug().Uint64("post_id", id).Str("user", form.User).Msg("Post created")
	return redirected(id)
}

// Dump renders a textual dump of the store.
func (s *PostService) Dump(ctx context.Context) Outcome {
	dump, err := gateway.Submit(ctx, s.gw, func(e repositories.Engine) (string, error) {
		return e.Dump()
	})
	if err != nil {
		return s.fail(err, "dump store")
	}
	return rendered(ViewDump, dump)
}

func (s *PostService) fail(err error, action string) Outcome {
	return logFailure(s.logger, failed(err), action)
}

func logFailure(logger zerolog.Logger, out Outcome, action string) Outcome {
	if out.Kind == Busy {
		logger.Warn().Err(out.Err).Str("action", action).Msg("Storage busy")
	} else {
		logger.Error().Err(out.Err).Str("action", action).Msg("Storage operation failed")
	}
	return out
}
