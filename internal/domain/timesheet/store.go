package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timesheet/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const entryColumns = `
  id,
  employee_id,
  COALESCE(project_id::text, ''),
  entry_kind,
  COALESCE(category, ''),
  start_date,
  end_date,
  hours,
  minutes,
  COALESCE(description, ''),
  COALESCE(task_type, ''),
  is_billable,
  status,
  submitted_at,
  COALESCE(reviewed_by::text, ''),
  reviewed_at,
  COALESCE(review_comment, ''),
  created_at,
  updated_at
`

func (s *Store) InsertEntry(ctx context.Context, entry *Entry) (string, error) {
	var projectID any
	if entry.ProjectID != "" {
		projectID = entry.ProjectID
	}
	var category any
	if entry.Category != "" {
		category = entry.Category
	}

	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_entries
      (employee_id, project_id, entry_kind, category, start_date, end_date,
       hours, minutes, description, task_type, is_billable, status, submitted_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, entry.EmployeeID, projectID, entry.Kind, category, entry.StartDate, entry.EndDate,
		entry.Hours, entry.Minutes, entry.Description, entry.TaskType, entry.Billable,
		entry.Status, entry.SubmittedAt).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*Entry, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE id = $1", id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Store) HasActiveAssignment(ctx context.Context, projectID, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM project_assignments pa
    JOIN projects p ON pa.project_id = p.id
    JOIN clients c ON p.client_id = c.id
    JOIN users u ON pa.employee_id = u.id
    WHERE pa.project_id = $1 AND pa.employee_id = $2
      AND p.status = 'active' AND c.is_active AND NOT c.is_internal AND u.is_active
  `, projectID, employeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ProjectManagerID(ctx context.Context, projectID string) (string, error) {
	var managerID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(manager_id::text, '') FROM projects WHERE id = $1
  `, projectID).Scan(&managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return managerID, nil
}

// MarkRecalled flips submitted -> recalled atomically. Returns false when
// the entry was no longer submitted, e.g. a reviewer got there first.
func (s *Store) MarkRecalled(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET status = 'recalled', updated_at = $2
    WHERE id = $1 AND status = 'submitted'
  `, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyReview records the decision atomically; the status precondition in
// the WHERE clause gives racing reviewers exactly one winner.
func (s *Store) ApplyReview(ctx context.Context, id string, decision Status, reviewerID, comment string, now time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET status = $2, reviewed_by = $3, reviewed_at = $4, review_comment = $5, updated_at = $4
    WHERE id = $1 AND status = 'submitted'
  `, id, decision, reviewerID, now, comment)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string, status Status, limit, offset int) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM time_entries WHERE employee_id = $1"
	args := []any{employeeID}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY start_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.queryEntries(ctx, query, args...)
}

func (s *Store) ListRecallable(ctx context.Context, employeeID string, cutoff time.Time) ([]Entry, error) {
	return s.queryEntries(ctx, `
    SELECT `+entryColumns+`
    FROM time_entries
    WHERE employee_id = $1 AND status = 'submitted' AND submitted_at >= $2
    ORDER BY submitted_at ASC
  `, employeeID, cutoff)
}

func (s *Store) ListPending(ctx context.Context, reviewer Reviewer) ([]Entry, error) {
	if reviewer.Role == auth.RoleAdmin {
		return s.queryEntries(ctx, `
      SELECT `+entryColumns+`
      FROM time_entries
      WHERE status = 'submitted'
      ORDER BY submitted_at ASC
    `)
	}
	return s.queryEntries(ctx, `
    SELECT `+entryColumns+`
    FROM time_entries te
    WHERE te.status = 'submitted'
      AND (te.project_id IS NULL
           OR EXISTS (
             SELECT 1 FROM projects p
             WHERE p.id = te.project_id AND (p.manager_id IS NULL OR p.manager_id = $1)
           ))
    ORDER BY te.submitted_at ASC
  `, reviewer.ID)
}

func (s *Store) ListReviewed(ctx context.Context, from, to time.Time, status Status, limit, offset int) ([]Entry, error) {
	query := "SELECT " + entryColumns + ` FROM time_entries
    WHERE status IN ('approved', 'rejected') AND start_date BETWEEN $1 AND $2`
	args := []any{from, to}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY reviewed_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.queryEntries(ctx, query, args...)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	if err := row.Scan(
		&entry.ID, &entry.EmployeeID, &entry.ProjectID, &entry.Kind, &entry.Category,
		&entry.StartDate, &entry.EndDate, &entry.Hours, &entry.Minutes,
		&entry.Description, &entry.TaskType, &entry.Billable, &entry.Status,
		&entry.SubmittedAt, &entry.ReviewedBy, &entry.ReviewedAt, &entry.ReviewComment,
		&entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
