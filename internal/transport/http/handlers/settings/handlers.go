package settingshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/audit"
	"timesheet/internal/domain/auth"
	"timesheet/internal/domain/settings"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
)

type Handler struct {
	Service *settings.Service
	Audit   *audit.Service
}

func NewHandler(service *settings.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/", h.handleList)
		r.Put("/{key}", h.handleUpdate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	values, err := h.Service.All(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, values, middleware.GetRequestID(r.Context()))
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	key := chi.URLParam(r, "key")

	var payload updateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Update(r.Context(), key, payload.Value); err != nil {
		if errors.Is(err, settings.ErrUnknownKey) {
			api.Fail(w, http.StatusNotFound, "unknown_key", "unknown setting key", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, audit.ActionUpdateSettings, "setting", key, payload.Value); err != nil {
		slog.Warn("audit write failed", "action", audit.ActionUpdateSettings, "err", err)
	}
	api.Success(w, map[string]string{key: payload.Value}, middleware.GetRequestID(r.Context()))
}
