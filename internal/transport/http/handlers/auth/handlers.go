package authhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/audit"
	"timesheet/internal/domain/auth"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
)

const tokenTTL = 8 * time.Hour

type Handler struct {
	Store  *auth.Store
	Secret string
	Audit  *audit.Service
}

func NewHandler(store *auth.Store, secret string, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Secret: secret, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.With(middleware.RequireAuth).Get("/auth/me", h.handleMe)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	username := strings.TrimSpace(strings.ToLower(payload.Username))
	cred, err := h.Store.FindByUsername(r.Context(), username)
	if err != nil || !cred.IsActive {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(cred.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: cred.ID, Role: string(cred.Role)}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), cred.ID, audit.ActionLogin, "user", cred.ID, username); err != nil {
		slog.Warn("audit write failed", "action", audit.ActionLogin, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":       cred.ID,
			"username": cred.Username,
			"fullName": cred.FullName,
			"role":     string(cred.Role),
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionLogout, "user", user.UserID, ""); err != nil {
			slog.Warn("audit write failed", "action", audit.ActionLogout, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	cred, err := h.Store.FindByID(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"id":       cred.ID,
		"username": cred.Username,
		"fullName": cred.FullName,
		"role":     string(cred.Role),
		"isActive": cred.IsActive,
	}, middleware.GetRequestID(r.Context()))
}
