package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"subscout/application/commands"
	"subscout/application/queries"
	"subscout/domain/core/valueobjects"
)

// PostHandler handles drafted outreach posts
type PostHandler struct {
	base
}

func NewPostHandler(deps Deps) *PostHandler {
	return &PostHandler{base{deps}}
}

// GeneratePostRequest is the body of POST /api/posts/generate
type GeneratePostRequest struct {
	SubredditID string `json:"subredditId"`
	AppID       string `json:"appId"`
}

// UpdatePostRequest is the body of PATCH /api/posts/{id}
type UpdatePostRequest struct {
	Title   *string                  `json:"title,omitempty"`
	Content *string                  `json:"content,omitempty"`
	Status  *valueobjects.PostStatus `json:"status,omitempty"`
}

// Generate handles POST /api/posts/generate
func (h *PostHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req GeneratePostRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, commands.GeneratePostCommand{UserID: userID, AppID: req.AppID, SubredditID: req.SubredditID})
}

// List handles GET /api/posts?status=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	q := queries.ListPostsQuery{UserID: userID}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := valueobjects.PostStatus(raw)
		q.Status = &status
	}
	h.ask(w, r, q)
}

// Update handles PATCH /api/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpdatePostRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, commands.UpdatePostCommand{
		UserID:  userID,
		PostID:  chi.URLParam(r, "id"),
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
}
