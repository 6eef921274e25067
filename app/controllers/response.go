package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"blabber/app/services"
	"blabber/app/views"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// maxFormBytes bounds the size of a submitted form.
const maxFormBytes = 1 << 20

// responder translates service outcomes into HTTP responses.
type responder struct {
	views  *views.Renderer
	logger zerolog.Logger
}

func (rs *responder) respond(w http.ResponseWriter, r *http.Request, out services.Outcome) {
	switch out.Kind {
	case services.Rendered:
		rs.render(w, r, out)
	case services.Redirected:
		location, err := rs.views.PostURL(out.PostID)
		if err != nil {
			rs.logger.Error().Err(err).Uint64("post_id", out.PostID).Msg("Failed to build redirect")
			rs.sendError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, location, http.StatusFound)
	case services.NotFound:
		rs.sendError(w, r, "Post not found", http.StatusNotFound)
	case services.Busy:
		w.Header().Set("Retry-After", "1")
		rs.sendError(w, r, "Server is busy, please try again later", http.StatusServiceUnavailable)
	default:
		rs.sendError(w, r, "Internal server error", http.StatusInternalServerError)
	}
}

func (rs *responder) render(w http.ResponseWriter, r *http.Request, out services.Outcome) {
	if wantsJSON(r) {
		rs.sendJSON(w, http.StatusOK, out.Data)
		return
	}
	if text, ok := out.Data.(string); ok && !rs.views.Has(out.View) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
		return
	}

	// Render into a buffer so a template error still produces a clean 500.
	var buf bytes.Buffer
	if err := rs.views.Render(&buf, out.View, out.Data); err != nil {
		rs.logger.Error().Err(err).Str("view", out.View).Msg("Template error")
		rs.sendError(w, r, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rs *responder) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func (rs *responder) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if wantsJSON(r) {
		rs.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// parseForm reads the urlencoded or multipart body of a submission.
func (rs *responder) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		rs.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			rs.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return false
		}
	}
	return true
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// postID reads the post_id path variable. Ids that do not fit in a uint64
// cannot exist.
func postID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["post_id"], 10, 64)
	return id, err == nil
}
