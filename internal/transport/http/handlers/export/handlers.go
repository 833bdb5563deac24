package exporthandler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/auth"
	"timesheet/internal/domain/export"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
	"timesheet/internal/transport/http/shared"
)

type Handler struct {
	Service *export.Service
}

func NewHandler(service *export.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	reviewers := middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)
	admin := middleware.RequireRole(auth.RoleAdmin)

	r.Route("/exports", func(r chi.Router) {
		r.With(reviewers).Get("/entries", h.handleEntriesCSV)
		r.With(reviewers).Get("/timesheet/{employeeID}", h.handleTimesheetPDF)
		r.With(admin).Get("/users", h.handleUsersCSV)
		r.With(admin).Get("/projects", h.handleProjectsCSV)
		r.With(admin).Post("/backup", h.handleBackup)
	})
}

func (h *Handler) parseEntryFilter(w http.ResponseWriter, r *http.Request) (export.EntryFilter, bool) {
	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return export.EntryFilter{}, false
	}
	return export.EntryFilter{
		From:         from,
		To:           to,
		OnlyApproved: r.URL.Query().Get("approvedOnly") == "true",
	}, true
}

func (h *Handler) handleEntriesCSV(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseEntryFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.Service.Entries(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export entries", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=time-entries.csv")
	writer := csv.NewWriter(w)
	header := []string{
		"employee", "username", "client", "project", "kind", "category", "task_type",
		"start_date", "end_date", "hours", "billable", "status", "submitted_at",
		"reviewed_by", "reviewed_at", "review_comment",
	}
	if err := writer.Write(header); err != nil {
		slog.Warn("entries export header failed", "err", err)
	}
	for _, row := range rows {
		record := []string{
			row.EmployeeName, row.Username, row.ClientName, row.ProjectName,
			row.Kind, row.Category, row.TaskType,
			row.StartDate.Format("2006-01-02"), row.EndDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", row.TotalHours()),
			strconv.FormatBool(row.Billable), row.Status,
			formatTimePtr(row.SubmittedAt), row.ReviewerName, formatTimePtr(row.ReviewedAt),
			row.ReviewComment,
		}
		if err := writer.Write(record); err != nil {
			slog.Warn("entries export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("entries export flush failed", "err", err)
	}
}

func (h *Handler) handleUsersCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Users(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export users", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=users.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "username", "email", "full_name", "role", "department", "is_active", "created_at"}); err != nil {
		slog.Warn("users export header failed", "err", err)
	}
	for _, row := range rows {
		record := []string{
			row.ID, row.Username, row.Email, row.FullName, row.Role, row.Department,
			strconv.FormatBool(row.IsActive), row.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			slog.Warn("users export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("users export flush failed", "err", err)
	}
}

func (h *Handler) handleProjectsCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Projects(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export projects", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=projects.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "client", "project", "manager", "status", "budget_hours", "team"}); err != nil {
		slog.Warn("projects export header failed", "err", err)
	}
	for _, row := range rows {
		record := []string{
			row.ID, row.ClientName, row.Name, row.ManagerName, row.Status,
			fmt.Sprintf("%.1f", row.BudgetHours), row.Team,
		}
		if err := writer.Write(record); err != nil {
			slog.Warn("projects export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("projects export flush failed", "err", err)
	}
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=backup-%s.xlsx", time.Now().UTC().Format("20060102-150405")))
	if err := h.Service.WriteBackup(r.Context(), w, actor.UserID); err != nil {
		slog.Error("backup export failed", "err", err)
	}
}

func (h *Handler) handleTimesheetPDF(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseEntryFilter(w, r)
	if !ok {
		return
	}
	filter.EmployeeID = chi.URLParam(r, "employeeID")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=timesheet.pdf")
	if err := h.Service.WriteTimesheetPDF(r.Context(), w, filter); err != nil {
		slog.Error("timesheet pdf failed", "err", err)
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
