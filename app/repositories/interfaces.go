package repositories

import "blabber/app/models"

// Engine is the storage engine contract. Implementations are not safe for
// concurrent use: every call must come from a single goroutine at a time.
type Engine interface {
	// FetchFrontPage returns up to maxPosts of the most recent posts, oldest first.
	FetchFrontPage(maxPosts int) ([]models.FrontPageEntry, error)

	// FetchPost returns the post with up to maxComments of its most recent
	// comments. A nil detail means the post does not exist.
	FetchPost(postID uint64, maxComments int) (*models.PostDetail, error)

	// CreatePost stores a new post and returns its id.
	CreatePost(user, title, content string) (uint64, error)

	// CreateComment appends a comment to a post. It returns false, and writes
	// nothing, if the post does not exist.
	CreateComment(postID uint64, user, content string) (bool, error)

	// Dump returns a full textual export of the store.
	Dump() (string, error)

	// Close flushes and releases the store. It must be the last call.
	Close() error
}
