package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"subscout/application/commands"
	"subscout/application/queries"
	"subscout/domain/core/valueobjects"
)

// SubredditHandler handles discovery, monitoring and scanning of subreddits
type SubredditHandler struct {
	base
}

func NewSubredditHandler(deps Deps) *SubredditHandler {
	return &SubredditHandler{base{deps}}
}

// UpdateSubredditRequest is the body of PATCH /api/subreddits/{id}
type UpdateSubredditRequest struct {
	IsMonitored *bool                       `json:"is_monitored,omitempty"`
	Activity    *valueobjects.ActivityLevel `json:"activity,omitempty"`
	MatchScore  *int                        `json:"match_score,omitempty"`
}

// SearchRequest is the body of POST /api/subreddits/{id}/search
type SearchRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

// Discover handles POST /api/apps/{appId}/subreddits/discover
func (h *SubredditHandler) Discover(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, commands.DiscoverSubredditsCommand{UserID: userID, AppID: chi.URLParam(r, "appId")})
}

// ListByApp handles GET /api/apps/{appId}/subreddits
func (h *SubredditHandler) ListByApp(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.ListSubredditsQuery{UserID: userID, AppID: chi.URLParam(r, "appId")})
}

// Update handles PATCH /api/subreddits/{id}
func (h *SubredditHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req UpdateSubredditRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, commands.UpdateSubredditCommand{
		UserID:      userID,
		SubredditID: chi.URLParam(r, "id"),
		IsMonitored: req.IsMonitored,
		Activity:    req.Activity,
		MatchScore:  req.MatchScore,
	})
}

// Scan handles POST /api/subreddits/{id}/scan
func (h *SubredditHandler) Scan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, commands.ScanSubredditCommand{UserID: userID, SubredditID: chi.URLParam(r, "id")})
}

// HotPosts handles GET /api/subreddits/{id}/posts
func (h *SubredditHandler) HotPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, ok := h.limitParam(w, r, queries.DefaultHotPostLimit)
	if !ok {
		return
	}
	h.ask(w, r, queries.HotPostsQuery{UserID: userID, SubredditID: chi.URLParam(r, "id"), Limit: limit})
}

// Search handles POST /api/subreddits/{id}/search
func (h *SubredditHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	limit := queries.DefaultSearchLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	h.ask(w, r, queries.SearchSubredditQuery{
		UserID:      userID,
		SubredditID: chi.URLParam(r, "id"),
		Query:       req.Query,
		Limit:       limit,
	})
}
