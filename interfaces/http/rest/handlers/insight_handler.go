package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"subscout/application/commands"
	"subscout/application/queries"
)

// InsightHandler serves insights, the activity feed and dashboard stats
type InsightHandler struct {
	base
}

func NewInsightHandler(deps Deps) *InsightHandler {
	return &InsightHandler{base{deps}}
}

// ListByApp handles GET /api/apps/{appId}/insights
func (h *InsightHandler) ListByApp(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.ListInsightsQuery{UserID: userID, AppID: chi.URLParam(r, "appId")})
}

// AnalyzeTrends handles POST /api/apps/{appId}/insights/trends
func (h *InsightHandler) AnalyzeTrends(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.send(w, r, commands.AnalyzeTrendsCommand{UserID: userID, AppID: chi.URLParam(r, "appId")})
}

// PainPoints handles GET /api/insights/pain-points
func (h *InsightHandler) PainPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, ok := h.limitParam(w, r, queries.DefaultInsightLimit)
	if !ok {
		return
	}
	h.ask(w, r, queries.TopPainPointsQuery{UserID: userID, Limit: limit})
}

// Trending handles GET /api/insights/trending
func (h *InsightHandler) Trending(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, ok := h.limitParam(w, r, queries.DefaultInsightLimit)
	if !ok {
		return
	}
	h.ask(w, r, queries.TrendingTopicsQuery{UserID: userID, Limit: limit})
}

// Activities handles GET /api/activities
func (h *InsightHandler) Activities(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, ok := h.limitParam(w, r, queries.DefaultActivityLimit)
	if !ok {
		return
	}
	h.ask(w, r, queries.RecentActivitiesQuery{UserID: userID, Limit: limit})
}

// Stats handles GET /api/stats
func (h *InsightHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.UserStatsQuery{UserID: userID})
}
