package entrieshandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/auth"
	"timesheet/internal/domain/timesheet"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
	"timesheet/internal/transport/http/shared"
)

type Handler struct {
	Service *timesheet.Service
}

func NewHandler(service *timesheet.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/entries", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleListMine)
		r.Get("/recallable", h.handleListRecallable)
		r.With(middleware.RequireRole(auth.RoleManager, auth.RoleAdmin)).Get("/pending", h.handleListPending)
		r.With(middleware.RequireRole(auth.RoleManager, auth.RoleAdmin)).Get("/reviewed", h.handleListReviewed)
		r.Get("/{entryID}", h.handleGet)
		r.Post("/{entryID}/recall", h.handleRecall)
		r.With(middleware.RequireRole(auth.RoleManager, auth.RoleAdmin)).Post("/{entryID}/approve", h.handleApprove)
		r.With(middleware.RequireRole(auth.RoleManager, auth.RoleAdmin)).Post("/{entryID}/reject", h.handleReject)
	})
}

type createEntryRequest struct {
	Kind        string `json:"kind"`
	ProjectID   string `json:"projectId"`
	Category    string `json:"category"`
	TaskType    string `json:"taskType"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Hours       int    `json:"hours"`
	Minutes     int    `json:"minutes"`
	Description string `json:"description"`
	Billable    bool   `json:"billable"`
	Submit      bool   `json:"submit"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("kind", payload.Kind, "entry kind is required")
	v.Enum("kind", payload.Kind, []string{string(timesheet.KindProjectWork), string(timesheet.KindInternal)}, "must be project_work or internal")
	startDate, startOK := v.Date("startDate", payload.StartDate)
	endDate := startDate
	if payload.Kind == string(timesheet.KindInternal) {
		var endOK bool
		endDate, endOK = v.Date("endDate", payload.EndDate)
		if startOK && endOK {
			v.DateOrder("startDate", startDate, "endDate", endDate)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	entry, err := h.Service.CreateEntry(r.Context(), timesheet.CreateEntryInput{
		EmployeeID:  user.UserID,
		Kind:        timesheet.Kind(payload.Kind),
		ProjectID:   payload.ProjectID,
		Category:    payload.Category,
		TaskType:    payload.TaskType,
		StartDate:   startDate,
		EndDate:     endDate,
		PerDay:      timesheet.Duration{Hours: payload.Hours, Minutes: payload.Minutes},
		Description: payload.Description,
		Billable:    payload.Billable,
		Submit:      payload.Submit,
	}, time.Now().UTC())
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	status := timesheet.Status(r.URL.Query().Get("status"))
	entries, err := h.Service.ListMine(r.Context(), user.UserID, status, page.Limit, page.Offset)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRecallable(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	candidates, err := h.Service.ListRecallable(r.Context(), user.UserID, time.Now().UTC())
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Success(w, candidates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.Get(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if entry.EmployeeID != user.UserID && !user.Role.CanReview() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your entry", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecall(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.Recall(r.Context(), chi.URLParam(r, "entryID"), user.UserID, time.Now().UTC())
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

type reviewRequest struct {
	Comment string `json:"comment"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, timesheet.StatusApproved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, timesheet.StatusRejected)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request, decision timesheet.Status) {
	user, _ := middleware.GetUser(r.Context())

	var payload reviewRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	reviewer := timesheet.Reviewer{ID: user.UserID, Role: user.Role}
	entry, err := h.Service.Review(r.Context(), chi.URLParam(r, "entryID"), decision, reviewer, payload.Comment, time.Now().UTC())
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entries, err := h.Service.PendingReviews(r.Context(), timesheet.Reviewer{ID: user.UserID, Role: user.Role})
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListReviewed(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	status := timesheet.Status(r.URL.Query().Get("status"))
	entries, err := h.Service.ReviewHistory(r.Context(), from, to, status, page.Limit, page.Offset)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func writeEntryError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, timesheet.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, timesheet.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "entry not found", requestID)
	case errors.Is(err, timesheet.ErrNotOwner):
		api.Fail(w, http.StatusForbidden, "not_owner", "entry belongs to another employee", requestID)
	case errors.Is(err, timesheet.ErrUnauthorizedReviewer):
		api.Fail(w, http.StatusForbidden, "forbidden", "not authorized to review this entry", requestID)
	case errors.Is(err, timesheet.ErrRecallWindowExpired):
		api.Fail(w, http.StatusUnprocessableEntity, "recall_window_expired", "recall window has elapsed", requestID)
	case errors.Is(err, timesheet.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}
