// Package views renders the HTML pages and builds canonical URLs from the
// named routes of the router.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var files embed.FS

// Route names shared by the router and the URL helpers.
const (
	RouteIndex         = "index"
	RouteSubmitPost    = "submit_post"
	RouteShowPost      = "show_post"
	RouteSubmitComment = "submit_comment"
	RouteDump          = "dump"
)

// DateTimeFormat is the layout used for displayed timestamps.
const DateTimeFormat = "2006-01-02 15:04:05"

var pages = map[string]string{
	"index": "templates/index.html",
	"post":  "templates/post.html",
}

// Renderer executes the page templates.
type Renderer struct {
	router *mux.Router
	pages  map[string]*template.Template
}

// New parses the embedded templates. URLs are resolved against router at
// render time, so routes may be registered after New returns.
func New(router *mux.Router) (*Renderer, error) {
	r := &Renderer{
		router: router,
		pages:  make(map[string]*template.Template, len(pages)),
	}
	funcs := template.FuncMap{
		"datetime":   FormatDateTime,
		"indexURL":   func() (string, error) { return r.URL(RouteIndex) },
		"submitURL":  func() (string, error) { return r.URL(RouteSubmitPost) },
		"postURL":    r.PostURL,
		"commentURL": r.CommentURL,
	}
	for name, file := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Has reports whether view names a page template.
func (r *Renderer) Has(view string) bool {
	_, ok := r.pages[view]
	return ok
}

// Render executes the named page with data.
func (r *Renderer) Render(w io.Writer, view string, data interface{}) error {
	tmpl, ok := r.pages[view]
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// URL builds the path of a named route.
func (r *Renderer) URL(name string, pairs ...string) (string, error) {
	route := r.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("no route named %q", name)
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", fmt.Errorf("failed to build %s url: %w", name, err)
	}
	return u.String(), nil
}

// PostURL is the canonical location of a post.
func (r *Renderer) PostURL(id uint64) (string, error) {
	return r.URL(RouteShowPost, "post_id", strconv.FormatUint(id, 10))
}

// CommentURL is where comments on a post are submitted.
func (r *Renderer) CommentURL(id uint64) (string, error) {
	return r.URL(RouteSubmitComment, "post_id", strconv.FormatUint(id, 10))
}

// FormatDateTime renders t in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format(DateTimeFormat)
}
