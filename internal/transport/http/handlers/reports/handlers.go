package reportshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/auth"
	"timesheet/internal/domain/reports"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
	"timesheet/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	reviewers := middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)

	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/mine", h.handleMine)
		r.With(reviewers).Get("/employees", h.handleEmployees)
		r.With(reviewers).Get("/projects", h.handleProjects)
		r.With(reviewers).Get("/clients", h.handleClients)
		r.With(reviewers).Get("/internal", h.handleInternal)
		r.With(middleware.RequireRole(auth.RoleManager)).Get("/team", h.handleTeam)
		r.With(reviewers).Get("/dashboard", h.handleDashboard)
	})
}

// parseRange reads ?from=&to= and defaults to the last 30 days.
func parseRange(w http.ResponseWriter, r *http.Request) (reports.DateRange, bool) {
	if r.URL.Query().Get("from") == "" && r.URL.Query().Get("to") == "" {
		now := time.Now().UTC()
		return reports.DateRange{From: now.AddDate(0, 0, -30), To: now}, true
	}

	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return reports.DateRange{}, false
	}
	return reports.DateRange{From: from, To: to}, true
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	activity, err := h.Service.MyActivity(r.Context(), user.UserID, time.Now().UTC())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build activity summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, activity, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployees(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	summaries, err := h.Service.EmployeeReport(r.Context(), rng)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build employee report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	summaries, err := h.Service.ProjectReport(r.Context(), rng)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build project report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClients(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	summaries, err := h.Service.ClientReport(r.Context(), rng)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build client report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInternal(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	summaries, err := h.Service.InternalReport(r.Context(), rng)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build internal time report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summaries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	team, err := h.Service.TeamOverview(r.Context(), user.UserID, rng)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build team overview", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, team, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Service.Dashboard(r.Context(), time.Now().UTC())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build dashboard metrics", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, metrics, middleware.GetRequestID(r.Context()))
}
