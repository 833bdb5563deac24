package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timesheet/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) InsertUser(ctx context.Context, in CreateUserInput, passwordHash, createdBy string) (string, error) {
	var creator any
	if createdBy != "" {
		creator = createdBy
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (username, password_hash, email, full_name, role, department, created_by)
    VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7)
    RETURNING id
  `, in.Username, passwordHash, in.Email, in.FullName, string(in.Role), in.Department, creator).Scan(&id)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: username %q is taken", ErrDuplicate, in.Username)
	}
	return id, err
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	var role string
	err := s.DB.QueryRow(ctx, `
    SELECT id, username, COALESCE(email, ''), full_name, role,
           COALESCE(department, ''), is_active, COALESCE(created_by::text, ''), created_at
    FROM users WHERE id = $1
  `, id).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &role,
		&u.Department, &u.IsActive, &u.CreatedBy, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role, err = auth.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, includeInactive bool) ([]User, error) {
	query := `
    SELECT id, username, COALESCE(email, ''), full_name, role,
           COALESCE(department, ''), is_active, COALESCE(created_by::text, ''), created_at
    FROM users`
	if !includeInactive {
		query += " WHERE is_active"
	}
	query += " ORDER BY full_name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &role,
			&u.Department, &u.IsActive, &u.CreatedBy, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Role, err = auth.ParseRole(role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1", userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1", userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetUserRole(ctx context.Context, userID string, role auth.Role) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE users SET role = $2, updated_at = now() WHERE id = $1", userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOtherActiveAdmins counts active admins excluding the given user.
func (s *Store) CountOtherActiveAdmins(ctx context.Context, excludeID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE role = 'admin' AND is_active AND id <> $1", excludeID).Scan(&n)
	return n, err
}

// DeleteUser removes the user and everything that references them. The
// schema has no ON DELETE CASCADE, so the cleanup is explicit and
// transactional.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statements := []string{
		"DELETE FROM time_entries WHERE employee_id = $1",
		"UPDATE time_entries SET reviewed_by = NULL WHERE reviewed_by = $1",
		"DELETE FROM project_assignments WHERE employee_id = $1",
		"UPDATE projects SET manager_id = NULL WHERE manager_id = $1",
		"UPDATE users SET created_by = NULL WHERE created_by = $1",
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertClient(ctx context.Context, name, description string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO clients (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id
  `, name, description).Scan(&id)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: client %q already exists", ErrDuplicate, name)
	}
	return id, err
}

func (s *Store) GetClient(ctx context.Context, id string) (*Client, error) {
	var c Client
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), is_internal, is_active, created_at
    FROM clients WHERE id = $1
  `, id).Scan(&c.ID, &c.Name, &c.Description, &c.IsInternal, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns external clients; the internal bucket client never
// shows up in directory listings.
func (s *Store) ListClients(ctx context.Context, includeInactive bool) ([]Client, error) {
	query := `
    SELECT id, name, COALESCE(description, ''), is_internal, is_active, created_at
    FROM clients WHERE NOT is_internal`
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsInternal, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteClient removes the client with its projects, their assignments
// and their time entries.
func (s *Store) SetClientActive(ctx context.Context, clientID string, active bool) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE clients SET is_active = $2 WHERE id = $1", clientID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statements := []string{
		"DELETE FROM time_entries WHERE project_id IN (SELECT id FROM projects WHERE client_id = $1)",
		"DELETE FROM project_assignments WHERE project_id IN (SELECT id FROM projects WHERE client_id = $1)",
		"DELETE FROM projects WHERE client_id = $1",
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, clientID); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, "DELETE FROM clients WHERE id = $1", clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertProject(ctx context.Context, in CreateProjectInput) (string, error) {
	var manager any
	if in.ManagerID != "" {
		manager = in.ManagerID
	}
	var budget any
	if in.BudgetHours > 0 {
		budget = in.BudgetHours
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO projects (client_id, name, description, manager_id, start_date, end_date, budget_hours)
    VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
    RETURNING id
  `, in.ClientID, in.Name, in.Description, manager, in.StartDate, in.EndDate, budget).Scan(&id)
	return id, err
}

const projectColumns = `
  p.id, p.client_id, c.name, p.name, COALESCE(p.description, ''),
  COALESCE(p.manager_id::text, ''), COALESCE(m.full_name, ''),
  p.start_date, p.end_date, p.status, COALESCE(p.budget_hours, 0), p.created_at`

func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+projectColumns+`
    FROM projects p
    JOIN clients c ON c.id = p.client_id
    LEFT JOIN users m ON m.id = p.manager_id
    WHERE p.id = $1
  `, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Store) ListProjects(ctx context.Context, status string) ([]Project, error) {
	query := `
    SELECT` + projectColumns + `
    FROM projects p
    JOIN clients c ON c.id = p.client_id
    LEFT JOIN users m ON m.id = p.manager_id
    WHERE NOT c.is_internal`
	args := []any{}
	if status != "" {
		query += " AND p.status = $1"
		args = append(args, status)
	}
	query += " ORDER BY c.name, p.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	if err := row.Scan(&p.ID, &p.ClientID, &p.ClientName, &p.Name, &p.Description,
		&p.ManagerID, &p.ManagerName, &p.StartDate, &p.EndDate,
		&p.Status, &p.BudgetHours, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SetProjectStatus(ctx context.Context, projectID, status string) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE projects SET status = $2 WHERE id = $1", projectID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	statements := []string{
		"DELETE FROM time_entries WHERE project_id = $1",
		"DELETE FROM project_assignments WHERE project_id = $1",
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, projectID); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, "DELETE FROM projects WHERE id = $1", projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// UpsertAssignment is idempotent; assigning an already-assigned pair is a
// no-op that still reports the existing row's id.
func (s *Store) UpsertAssignment(ctx context.Context, projectID, employeeID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO project_assignments (project_id, employee_id)
    VALUES ($1, $2)
    ON CONFLICT (project_id, employee_id) DO UPDATE SET project_id = EXCLUDED.project_id
    RETURNING id
  `, projectID, employeeID).Scan(&id)
	return id, err
}

func (s *Store) DeleteAssignment(ctx context.Context, projectID, employeeID string) error {
	tag, err := s.DB.Exec(ctx,
		"DELETE FROM project_assignments WHERE project_id = $1 AND employee_id = $2",
		projectID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, projectID string) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT pa.id, pa.project_id, p.name, pa.employee_id, u.full_name, pa.assigned_at
    FROM project_assignments pa
    JOIN projects p ON p.id = pa.project_id
    JOIN users u ON u.id = pa.employee_id
    WHERE pa.project_id = $1
    ORDER BY u.full_name
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.ProjectName, &a.EmployeeID, &a.EmployeeName, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
