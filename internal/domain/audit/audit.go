package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"timesheet/internal/requestctx"
)

// Action labels recorded by mutating operations.
const (
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionEntryDraft     = "TIME_ENTRY_DRAFT"
	ActionEntrySubmitted = "TIME_ENTRY_SUBMITTED"
	ActionEntryRecalled  = "RECALL_ENTRY"
	ActionEntryApproved  = "ENTRY_APPROVED"
	ActionEntryRejected  = "ENTRY_REJECTED"
	ActionCreateUser     = "CREATE_USER"
	ActionResetPassword  = "RESET_PASSWORD"
	ActionToggleUser     = "TOGGLE_USER_STATUS"
	ActionChangeRole     = "CHANGE_ROLE"
	ActionDeleteUser     = "DELETE_USER"
	ActionCreateClient   = "CREATE_CLIENT"
	ActionToggleClient   = "TOGGLE_CLIENT_STATUS"
	ActionDeleteClient   = "DELETE_CLIENT"
	ActionCreateProject  = "CREATE_PROJECT"
	ActionUpdateProject  = "UPDATE_PROJECT"
	ActionDeleteProject  = "DELETE_PROJECT"
	ActionUpdateSettings = "UPDATE_SETTINGS"
	ActionExportBackup   = "EXPORT_BACKUP"
)

type Event struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Detail     string    `json:"detail"`
	RequestID  string    `json:"requestId"`
	IP         string    `json:"ip"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
	From       time.Time
	To         time.Time
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record appends one audit event. Callers treat failures as best-effort:
// the primary mutation is never rolled back when the audit write fails.
func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, detail string) error {
	var actor any
	if actorID != "" {
		actor = actorID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, detail, request_id, ip_address)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
  `, actor, action, entityType, entityID, detail, requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx))
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery("SELECT id, COALESCE(actor_id::text, ''), action, COALESCE(entity_type, ''), COALESCE(entity_id, ''), COALESCE(detail, ''), COALESCE(request_id, ''), COALESCE(ip_address, ''), created_at", filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.Detail, &evt.RequestID, &evt.IP, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_logs WHERE 1=1"
	args := []any{}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Action+"%")
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id::text = $%d", len(args)+1)
		args = append(args, filter.ActorID)
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", len(args)+1)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND created_at < $%d", len(args)+1)
		args = append(args, filter.To.Add(24*time.Hour))
	}
	return query, args
}
