package services

import (
	"context"
	"errors"

	"blabber/app/gateway"
	"blabber/app/models"
)

// Kind tells the transport layer how to answer a request.
type Kind int

const (
	// Rendered means View should be rendered with Data.
	Rendered Kind = iota
	// Redirected means the client should be sent to the post PostID.
	Redirected
	// NotFound means the requested post does not exist.
	NotFound
	// Busy means the storage gateway refused the operation.
	Busy
	// ServerError means the operation failed unexpectedly.
	ServerError
)

func (k Kind) String() string {
	switch k {
	case Rendered:
		return "rendered"
	case Redirected:
		return "redirected"
	case NotFound:
		return "not_found"
	case Busy:
		return "busy"
	case ServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// View names.
const (
	ViewIndex = "index"
	ViewPost  = "post"
	ViewDump  = "dump"
)

// Outcome is the result of handling one request.
type Outcome struct {
	Kind   Kind
	View   string
	Data   interface{}
	PostID uint64
	Err    error
}

// IndexPage is the data of the front page.
type IndexPage struct {
	Posts []models.FrontPageEntry `json:"posts"`
	Form  *models.FormState       `json:"form"`
}

// PostPage is the data of a post page.
type PostPage struct {
	Post *models.PostDetail `json:"post"`
	Form *models.FormState  `json:"form"`
}

func rendered(view string, data interface{}) Outcome {
	return Outcome{Kind: Rendered, View: view, Data: data}
}

func redirected(postID uint64) Outcome {
	return Outcome{Kind: Redirected, PostID: postID}
}

func notFound() Outcome {
	return Outcome{Kind: NotFound}
}

// failed classifies an error returned through the gateway. A caller that
// stopped waiting is reported as busy as well.
func failed(err error) Outcome {
	if errors.Is(err, gateway.ErrOverloaded) || errors.Is(err, gateway.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Outcome{Kind: Busy, Err: err}
	}
	return Outcome{Kind: ServerError, Err: err}
}
