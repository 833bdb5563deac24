package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// EntryRows flattens time entries with their employee, client, project
// and reviewer names for export.
func (s *Store) EntryRows(ctx context.Context, f EntryFilter) ([]EntryRow, error) {
	query := `
    SELECT t.id, u.full_name, u.username,
           COALESCE(c.name, ''), COALESCE(p.name, ''),
           t.entry_kind, COALESCE(t.category, ''), COALESCE(t.task_type, ''),
           t.start_date, t.end_date, t.hours, t.minutes,
           COALESCE(t.description, ''), t.is_billable, t.status,
           t.submitted_at, COALESCE(rv.full_name, ''), t.reviewed_at,
           COALESCE(t.review_comment, '')
    FROM time_entries t
    JOIN users u ON u.id = t.employee_id
    LEFT JOIN projects p ON p.id = t.project_id
    LEFT JOIN clients c ON c.id = p.client_id
    LEFT JOIN users rv ON rv.id = t.reviewed_by
    WHERE t.start_date BETWEEN $1 AND $2`
	args := []any{f.From, f.To}
	if f.OnlyApproved {
		query += " AND t.status = 'approved'"
	}
	if f.EmployeeID != "" {
		query += fmt.Sprintf(" AND t.employee_id = $%d", len(args)+1)
		args = append(args, f.EmployeeID)
	}
	query += " ORDER BY u.full_name, t.start_date"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.ID, &r.EmployeeName, &r.Username, &r.ClientName, &r.ProjectName,
			&r.Kind, &r.Category, &r.TaskType, &r.StartDate, &r.EndDate, &r.Hours, &r.Minutes,
			&r.Description, &r.Billable, &r.Status, &r.SubmittedAt, &r.ReviewerName,
			&r.ReviewedAt, &r.ReviewComment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UserRows(ctx context.Context) ([]UserRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, username, COALESCE(email, ''), full_name, role,
           COALESCE(department, ''), is_active, created_at
    FROM users ORDER BY full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserRow
	for rows.Next() {
		var r UserRow
		if err := rows.Scan(&r.ID, &r.Username, &r.Email, &r.FullName, &r.Role,
			&r.Department, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProjectRows lists projects with their team members joined into one
// comma-separated column.
func (s *Store) ProjectRows(ctx context.Context) ([]ProjectRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, c.name, p.name, COALESCE(m.full_name, ''), p.status,
           COALESCE(p.budget_hours, 0),
           COALESCE((
             SELECT string_agg(u.full_name, ', ' ORDER BY u.full_name)
             FROM project_assignments pa
             JOIN users u ON u.id = pa.employee_id
             WHERE pa.project_id = p.id
           ), '')
    FROM projects p
    JOIN clients c ON c.id = p.client_id
    LEFT JOIN users m ON m.id = p.manager_id
    ORDER BY c.name, p.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectRow
	for rows.Next() {
		var r ProjectRow
		if err := rows.Scan(&r.ID, &r.ClientName, &r.Name, &r.ManagerName, &r.Status,
			&r.BudgetHours, &r.Team); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// backupTables lists the tables dumped into the backup workbook, in
// sheet order.
var backupTables = []struct {
	Sheet   string
	Query   string
	Headers []string
}{
	{
		Sheet:   "Users",
		Query:   "SELECT id, username, COALESCE(email, ''), full_name, role, COALESCE(department, ''), is_active, created_at FROM users ORDER BY created_at",
		Headers: []string{"id", "username", "email", "full_name", "role", "department", "is_active", "created_at"},
	},
	{
		Sheet:   "Clients",
		Query:   "SELECT id, name, COALESCE(description, ''), is_internal, is_active, created_at FROM clients ORDER BY created_at",
		Headers: []string{"id", "name", "description", "is_internal", "is_active", "created_at"},
	},
	{
		Sheet:   "Projects",
		Query:   "SELECT id, client_id, name, COALESCE(description, ''), COALESCE(manager_id::text, ''), status, COALESCE(budget_hours, 0), created_at FROM projects ORDER BY created_at",
		Headers: []string{"id", "client_id", "name", "description", "manager_id", "status", "budget_hours", "created_at"},
	},
	{
		Sheet:   "Assignments",
		Query:   "SELECT id, project_id, employee_id, assigned_at FROM project_assignments ORDER BY assigned_at",
		Headers: []string{"id", "project_id", "employee_id", "assigned_at"},
	},
	{
		Sheet:   "Time_Entries",
		Query:   "SELECT id, employee_id, COALESCE(project_id::text, ''), entry_kind, COALESCE(category, ''), start_date, end_date, hours, minutes, COALESCE(task_type, ''), COALESCE(description, ''), is_billable, status, COALESCE(review_comment, ''), created_at FROM time_entries ORDER BY created_at",
		Headers: []string{"id", "employee_id", "project_id", "entry_kind", "category", "start_date", "end_date", "hours", "minutes", "task_type", "description", "is_billable", "status", "review_comment", "created_at"},
	},
	{
		Sheet:   "Audit_Logs",
		Query:   "SELECT id, COALESCE(actor_id::text, ''), action, COALESCE(entity_type, ''), COALESCE(entity_id, ''), COALESCE(detail, ''), created_at FROM audit_logs ORDER BY id",
		Headers: []string{"id", "actor_id", "action", "entity_type", "entity_id", "detail", "created_at"},
	},
}

// tableRows runs one backup query and renders every value as text.
func (s *Store) tableRows(ctx context.Context, query string) ([][]string, error) {
	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = renderValue(v)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func renderValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return value.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case [16]byte: // pgx renders uuid columns as byte arrays
		return fmt.Sprintf("%x-%x-%x-%x-%x", value[0:4], value[4:6], value[6:8], value[8:10], value[10:16])
	default:
		return fmt.Sprint(value)
	}
}
