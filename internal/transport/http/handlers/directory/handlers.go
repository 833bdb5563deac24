package directoryhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/auth"
	"timesheet/internal/domain/directory"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
	"timesheet/internal/transport/http/shared"
)

type Handler struct {
	Service *directory.Service
}

func NewHandler(service *directory.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	admin := middleware.RequireRole(auth.RoleAdmin)
	reviewers := middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)

	r.Route("/users", func(r chi.Router) {
		r.Use(admin)
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Get("/{userID}", h.handleGetUser)
		r.Post("/{userID}/reset-password", h.handleResetPassword)
		r.Post("/{userID}/activate", h.handleActivateUser)
		r.Post("/{userID}/deactivate", h.handleDeactivateUser)
		r.Post("/{userID}/role", h.handleChangeRole)
		r.Delete("/{userID}", h.handleDeleteUser)
	})

	r.Route("/clients", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleListClients)
		r.With(admin).Post("/", h.handleCreateClient)
		r.With(admin).Post("/{clientID}/activate", h.handleActivateClient)
		r.With(admin).Post("/{clientID}/deactivate", h.handleDeactivateClient)
		r.With(admin).Delete("/{clientID}", h.handleDeleteClient)
	})

	r.Route("/projects", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleListProjects)
		r.With(admin).Post("/", h.handleCreateProject)
		r.With(middleware.RequireAuth).Get("/{projectID}", h.handleGetProject)
		r.With(admin).Post("/{projectID}/status", h.handleProjectStatus)
		r.With(admin).Delete("/{projectID}", h.handleDeleteProject)
		r.With(reviewers).Get("/{projectID}/assignments", h.handleListAssignments)
		r.With(admin).Post("/{projectID}/assignments", h.handleAssign)
		r.With(admin).Delete("/{projectID}/assignments/{employeeID}", h.handleUnassign)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	users, err := h.Service.ListUsers(r.Context(), includeInactive)
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload directory.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("username", payload.Username, "username is required")
	v.Required("fullName", payload.FullName, "full name is required")
	v.Enum("role", string(payload.Role), []string{"admin", "manager", "employee"}, "must be admin, manager or employee")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Service.CreateUser(r.Context(), payload, actor.UserID)
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "userID"), payload.NewPassword, actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "password_reset"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	h.toggleUser(w, r, true)
}

func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.toggleUser(w, r, false)
}

func (h *Handler) toggleUser(w http.ResponseWriter, r *http.Request, active bool) {
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Service.SetUserActive(r.Context(), chi.URLParam(r, "userID"), active, actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"isActive": active}, middleware.GetRequestID(r.Context()))
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.ChangeRole(r.Context(), chi.URLParam(r, "userID"), auth.Role(payload.Role), actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"role": payload.Role}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteUser(r.Context(), chi.URLParam(r, "userID"), actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type createClientRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	clients, err := h.Service.ListClients(r.Context(), includeInactive)
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, clients, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	client, err := h.Service.CreateClient(r.Context(), payload.Name, payload.Description, actor.UserID)
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Created(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivateClient(w http.ResponseWriter, r *http.Request) {
	h.toggleClient(w, r, true)
}

func (h *Handler) handleDeactivateClient(w http.ResponseWriter, r *http.Request) {
	h.toggleClient(w, r, false)
}

func (h *Handler) toggleClient(w http.ResponseWriter, r *http.Request, active bool) {
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Service.SetClientActive(r.Context(), chi.URLParam(r, "clientID"), active, actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"isActive": active}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteClient(r.Context(), chi.URLParam(r, "clientID"), actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type createProjectRequest struct {
	ClientID    string  `json:"clientId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ManagerID   string  `json:"managerId"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	BudgetHours float64 `json:"budgetHours"`
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	in := directory.CreateProjectInput{
		ClientID:    payload.ClientID,
		Name:        payload.Name,
		Description: payload.Description,
		ManagerID:   payload.ManagerID,
		BudgetHours: payload.BudgetHours,
	}
	v := shared.NewValidator()
	if payload.StartDate != "" {
		if start, ok := v.Date("startDate", payload.StartDate); ok {
			in.StartDate = &start
		}
	}
	if payload.EndDate != "" {
		if end, ok := v.Date("endDate", payload.EndDate); ok {
			in.EndDate = &end
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	project, err := h.Service.CreateProject(r.Context(), in, actor.UserID)
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Created(w, project, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, project, middleware.GetRequestID(r.Context()))
}

type projectStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload projectStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.SetProjectStatus(r.Context(), chi.URLParam(r, "projectID"), payload.Status, actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": payload.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteProject(r.Context(), chi.URLParam(r, "projectID"), actor.UserID); err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type assignRequest struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Service.ListAssignments(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var payload assignRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id, err := h.Service.Assign(r.Context(), chi.URLParam(r, "projectID"), payload.EmployeeID)
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Unassign(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeDirectoryError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "unassigned"}, middleware.GetRequestID(r.Context()))
}

func writeDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, directory.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), requestID)
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", requestID)
	case errors.Is(err, directory.ErrLastAdmin):
		api.Fail(w, http.StatusConflict, "last_admin", "cannot remove the last active admin", requestID)
	case errors.Is(err, directory.ErrInternalClient):
		api.Fail(w, http.StatusUnprocessableEntity, "internal_client", "operation not allowed on the internal client", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}
