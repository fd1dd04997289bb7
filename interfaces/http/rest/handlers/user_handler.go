package handlers

import (
	"net/http"

	"subscout/application/queries"
)

// UserHandler serves the caller's stored profile
type UserHandler struct {
	base
}

func NewUserHandler(deps Deps) *UserHandler {
	return &UserHandler{base{deps}}
}

// CurrentUser handles GET /api/auth/user
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.GetUserQuery{UserID: userID})
}
