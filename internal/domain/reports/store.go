package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// EmployeeSummaries aggregates per-employee hours for entries whose start
// date falls inside the range. Only active employees appear; employees
// with no entries appear with zero totals so the report shows the whole
// roster.
func (s *Store) EmployeeSummaries(ctx context.Context, r DateRange) ([]EmployeeSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.full_name,
           COALESCE(SUM(t.hours + t.minutes / 60.0), 0) AS total_hours,
           COALESCE(SUM(CASE WHEN t.is_billable THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0) AS billable_hours,
           COALESCE(SUM(CASE WHEN t.entry_kind = 'internal' THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0) AS internal_hours,
           COALESCE(SUM(CASE WHEN t.status = 'approved' THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0) AS approved_hours,
           COALESCE(SUM(CASE WHEN t.status = 'approved' AND t.is_billable THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0) AS approved_billable_hours,
           COALESCE(SUM(CASE WHEN t.status = 'submitted' THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0) AS submitted_hours,
           COUNT(t.id) AS entry_count
    FROM users u
    LEFT JOIN time_entries t
      ON t.employee_id = u.id
     AND t.start_date BETWEEN $1 AND $2
     AND t.status NOT IN ('rejected', 'recalled')
    WHERE u.is_active AND u.role = 'employee'
    GROUP BY u.id, u.full_name
    ORDER BY u.full_name
  `, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeeSummary
	for rows.Next() {
		var e EmployeeSummary
		if err := rows.Scan(&e.EmployeeID, &e.FullName, &e.TotalHours, &e.BillableHours,
			&e.InternalHours, &e.ApprovedHours, &e.ApprovedBillableHours, &e.SubmittedHours, &e.EntryCount); err != nil {
			return nil, err
		}
		e.Utilization = Utilization(e.ApprovedBillableHours, e.ApprovedHours)
		out = append(out, e)
	}
	return out, rows.Err()
}

// EmployeeDayTotals sums one employee's hours per calendar day inside the
// range, for overtime detection.
func (s *Store) EmployeeDayTotals(ctx context.Context, employeeID string, r DateRange) ([]DayTotal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT start_date, SUM(hours + minutes / 60.0)
    FROM time_entries
    WHERE employee_id = $1
      AND entry_kind = 'project_work'
      AND status NOT IN ('rejected', 'recalled')
      AND start_date BETWEEN $2 AND $3
    GROUP BY start_date
    ORDER BY start_date
  `, employeeID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayTotal
	for rows.Next() {
		var d DayTotal
		if err := rows.Scan(&d.Day, &d.Hours); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// EmployeeActivity sums one employee's own hours and entry status mix
// inside the range. Rejected and recalled entries are excluded from the
// hour totals but still counted in the status mix.
func (s *Store) EmployeeActivity(ctx context.Context, employeeID string, r DateRange) (*MyActivity, error) {
	a := &MyActivity{StatusCounts: map[string]int{}}
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(CASE WHEN status NOT IN ('rejected', 'recalled') THEN hours + minutes / 60.0 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN is_billable AND status NOT IN ('rejected', 'recalled') THEN hours + minutes / 60.0 ELSE 0 END), 0)
    FROM time_entries
    WHERE employee_id = $1 AND start_date BETWEEN $2 AND $3
  `, employeeID, r.From, r.To).Scan(&a.TotalHours, &a.BillableHours)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(*)
    FROM time_entries
    WHERE employee_id = $1 AND start_date BETWEEN $2 AND $3
    GROUP BY status
  `, employeeID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		a.StatusCounts[status] = count
	}
	return a, rows.Err()
}

// ProjectSummaries aggregates approved project hours in the range.
func (s *Store) ProjectSummaries(ctx context.Context, r DateRange) ([]ProjectSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.name, c.name,
           COALESCE(SUM(t.hours + t.minutes / 60.0), 0),
           COALESCE(SUM(CASE WHEN t.is_billable THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0),
           COALESCE(p.budget_hours, 0),
           COUNT(t.id),
           COUNT(DISTINCT t.employee_id)
    FROM projects p
    JOIN clients c ON c.id = p.client_id
    LEFT JOIN time_entries t
      ON t.project_id = p.id
     AND t.status = 'approved'
     AND t.start_date BETWEEN $1 AND $2
    WHERE NOT c.is_internal
    GROUP BY p.id, p.name, c.name, p.budget_hours
    ORDER BY c.name, p.name
  `, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		if err := rows.Scan(&p.ProjectID, &p.ProjectName, &p.ClientName, &p.TotalHours,
			&p.BillableHours, &p.BudgetHours, &p.EntryCount, &p.HeadCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClientSummaries rolls approved project hours up to the client.
func (s *Store) ClientSummaries(ctx context.Context, r DateRange) ([]ClientSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, COUNT(DISTINCT p.id),
           COALESCE(SUM(t.hours + t.minutes / 60.0), 0),
           COALESCE(SUM(CASE WHEN t.is_billable THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0)
    FROM clients c
    LEFT JOIN projects p ON p.client_id = c.id
    LEFT JOIN time_entries t
      ON t.project_id = p.id
     AND t.status = 'approved'
     AND t.start_date BETWEEN $1 AND $2
    WHERE c.is_active AND NOT c.is_internal
    GROUP BY c.id, c.name
    ORDER BY c.name
  `, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClientSummary
	for rows.Next() {
		var c ClientSummary
		if err := rows.Scan(&c.ClientID, &c.ClientName, &c.ProjectCount, &c.TotalHours, &c.BillableHours); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InternalSummaries breaks internal time down per category.
func (s *Store) InternalSummaries(ctx context.Context, r DateRange) ([]InternalSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT category, SUM(hours + minutes / 60.0), COUNT(id), COUNT(DISTINCT employee_id)
    FROM time_entries
    WHERE entry_kind = 'internal'
      AND status NOT IN ('rejected', 'recalled')
      AND start_date BETWEEN $1 AND $2
    GROUP BY category
    ORDER BY category
  `, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InternalSummary
	for rows.Next() {
		var i InternalSummary
		if err := rows.Scan(&i.Category, &i.TotalHours, &i.EntryCount, &i.HeadCount); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// TeamOverview lists members assigned to the given manager's projects,
// with hours logged in the range and their pending submission count.
func (s *Store) TeamOverview(ctx context.Context, managerID string, r DateRange) ([]TeamMember, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.full_name, p.name,
           COALESCE(SUM(CASE WHEN t.start_date BETWEEN $2 AND $3 THEN t.hours + t.minutes / 60.0 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN t.status = 'submitted' THEN 1 ELSE 0 END), 0)
    FROM project_assignments pa
    JOIN projects p ON p.id = pa.project_id AND p.manager_id = $1
    JOIN users u ON u.id = pa.employee_id AND u.is_active
    LEFT JOIN time_entries t ON t.employee_id = u.id AND t.project_id = p.id
    GROUP BY u.id, u.full_name, p.name
    ORDER BY u.full_name, p.name
  `, managerID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.EmployeeID, &m.FullName, &m.ProjectName, &m.LoggedHours, &m.PendingCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Dashboard collects the admin landing page counters in one round of
// queries. weekStart bounds the this-week hour totals.
func (s *Store) Dashboard(ctx context.Context, weekStart time.Time) (*DashboardMetrics, error) {
	var m DashboardMetrics
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(*) FROM users WHERE is_active),
      (SELECT COUNT(*) FROM projects p JOIN clients c ON c.id = p.client_id
        WHERE p.status = 'active' AND NOT c.is_internal),
      (SELECT COUNT(*) FROM clients WHERE is_active AND NOT is_internal),
      (SELECT COUNT(*) FROM time_entries WHERE status = 'submitted'),
      (SELECT COALESCE(SUM(hours + minutes / 60.0), 0) FROM time_entries
        WHERE start_date >= $1 AND status NOT IN ('rejected', 'recalled')),
      (SELECT COALESCE(SUM(hours + minutes / 60.0), 0) FROM time_entries
        WHERE start_date >= $1 AND is_billable AND status NOT IN ('rejected', 'recalled'))
  `, weekStart).Scan(&m.ActiveUsers, &m.ActiveProjects, &m.ActiveClients,
		&m.PendingReviews, &m.HoursThisWeek, &m.BillableThisWeek)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
