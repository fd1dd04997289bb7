// Package handlers translates HTTP requests into commands and queries.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"subscout/application/commands/bus"
	querybus "subscout/application/queries/bus"
	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
)

// maxBodyBytes caps request bodies. Post content tops out at 40000 runes.
const maxBodyBytes = 1 << 20

// Deps are shared by every resource handler
type Deps struct {
	Commands *bus.CommandBus
	Queries  *querybus.QueryBus
	Errors   *pkgerrors.ErrorHandler
	Logger   *zap.Logger
}

type base struct {
	Deps
}

func (h base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h base) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.Errors.Handle(w, r, err)
}

// userID returns the authenticated caller or writes a 401
func (h base) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return "", false
	}
	return user.UserID, true
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func (h base) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.respondError(w, r, pkgerrors.NewValidationError("Invalid request body: "+err.Error()))
	return false
}

func (h base) send(w http.ResponseWriter, r *http.Request, cmd bus.Command) {
	result, err := h.Commands.Send(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h base) ask(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := h.Queries.Ask(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// pathID reads a URL parameter that must be a UUID
func (h base) pathID(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		h.respondError(w, r, pkgerrors.NewValidationError("Invalid "+label+" format"))
		return "", false
	}
	return id, true
}

// limitParam reads ?limit=, falling back to def when it is absent
func (h base) limitParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.respondError(w, r, pkgerrors.NewValidationError("limit must be a number"))
		return 0, false
	}
	return n, true
}
