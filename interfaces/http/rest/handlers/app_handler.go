package handlers

import (
	"net/http"

	"subscout/application/commands"
	"subscout/application/queries"
)

// AppHandler handles app-related HTTP requests
type AppHandler struct {
	base
}

func NewAppHandler(deps Deps) *AppHandler {
	return &AppHandler{base{deps}}
}

// CreateAppRequest is the body of POST /api/apps
type CreateAppRequest struct {
	URL string `json:"url"`
}

// CreateApp handles POST /api/apps
func (h *AppHandler) CreateApp(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req CreateAppRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, commands.AnalyzeAppCommand{UserID: userID, URL: req.URL})
}

// ListApps handles GET /api/apps
func (h *AppHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.ListAppsQuery{UserID: userID})
}

// GetApp handles GET /api/apps/{id}
func (h *AppHandler) GetApp(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	appID, ok := h.pathID(w, r, "id", "app ID")
	if !ok {
		return
	}
	h.ask(w, r, queries.GetAppQuery{UserID: userID, AppID: appID})
}
