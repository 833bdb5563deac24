package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"timesheet/internal/domain/audit"
	"timesheet/internal/domain/auth"
)

// AuditRecorder mirrors the audit service; failures are logged and never
// surfaced to the caller.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, detail string) error
}

type Service struct {
	Store *Store
	Audit AuditRecorder
}

func NewService(store *Store, auditSink AuditRecorder) *Service {
	return &Service{Store: store, Audit: auditSink}
}

// CreateUser provisions an account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput, actorID string) (*User, error) {
	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" || in.FullName == "" {
		return nil, fmt.Errorf("%w: username and full name are required", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if _, err := auth.ParseRole(string(in.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.Store.InsertUser(ctx, in, hash, actorID)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, audit.ActionCreateUser, "user", id, in.Username)
	return s.Store.GetUser(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, includeInactive bool) ([]User, error) {
	return s.Store.ListUsers(ctx, includeInactive)
}

func (s *Service) ResetPassword(ctx context.Context, userID, newPassword, actorID string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionResetPassword, "user", userID, "")
	return nil
}

// SetUserActive toggles an account. Deactivating the last active admin is
// refused so the system always keeps an administrator.
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool, actorID string) error {
	if !active {
		if err := s.requireOtherAdmin(ctx, userID); err != nil {
			return err
		}
	}
	if err := s.Store.SetUserActive(ctx, userID, active); err != nil {
		return err
	}
	detail := "deactivated"
	if active {
		detail = "activated"
	}
	s.recordAudit(ctx, actorID, audit.ActionToggleUser, "user", userID, detail)
	return nil
}

// ChangeRole moves a user to a new role. Demoting the last active admin
// is refused.
func (s *Service) ChangeRole(ctx context.Context, userID string, role auth.Role, actorID string) error {
	if _, err := auth.ParseRole(string(role)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	current, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if current.Role == auth.RoleAdmin && role != auth.RoleAdmin {
		if err := s.requireOtherAdmin(ctx, userID); err != nil {
			return err
		}
	}
	if err := s.Store.SetUserRole(ctx, userID, role); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionChangeRole, "user", userID,
		string(current.Role)+" -> "+string(role))
	return nil
}

// DeleteUser removes the account and its dependent records. The last
// active admin cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, userID, actorID string) error {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == auth.RoleAdmin {
		if err := s.requireOtherAdmin(ctx, userID); err != nil {
			return err
		}
	}
	if err := s.Store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionDeleteUser, "user", userID, user.Username)
	return nil
}

func (s *Service) requireOtherAdmin(ctx context.Context, excludeID string) error {
	others, err := s.Store.CountOtherActiveAdmins(ctx, excludeID)
	if err != nil {
		return err
	}
	if others == 0 {
		return ErrLastAdmin
	}
	return nil
}

func (s *Service) CreateClient(ctx context.Context, name, description, actorID string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrValidation)
	}
	id, err := s.Store.InsertClient(ctx, name, strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, audit.ActionCreateClient, "client", id, name)
	return s.Store.GetClient(ctx, id)
}

func (s *Service) ListClients(ctx context.Context, includeInactive bool) ([]Client, error) {
	return s.Store.ListClients(ctx, includeInactive)
}

// SetClientActive toggles a client. The internal bucket client always
// stays active.
func (s *Service) SetClientActive(ctx context.Context, clientID string, active bool, actorID string) error {
	client, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if client.IsInternal {
		return ErrInternalClient
	}
	if err := s.Store.SetClientActive(ctx, clientID, active); err != nil {
		return err
	}
	detail := "deactivated"
	if active {
		detail = "activated"
	}
	s.recordAudit(ctx, actorID, audit.ActionToggleClient, "client", clientID, detail)
	return nil
}

func (s *Service) DeleteClient(ctx context.Context, clientID, actorID string) error {
	client, err := s.Store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if client.IsInternal {
		return ErrInternalClient
	}
	if err := s.Store.DeleteClient(ctx, clientID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionDeleteClient, "client", clientID, client.Name)
	return nil
}

// CreateProject adds a project under an external client. The internal
// bucket client takes no projects; internal time is categorised instead.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput, actorID string) (*Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.ClientID == "" {
		return nil, fmt.Errorf("%w: project name and client are required", ErrValidation)
	}
	client, err := s.Store.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client.IsInternal {
		return nil, ErrInternalClient
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, fmt.Errorf("%w: project end date precedes start date", ErrValidation)
	}
	id, err := s.Store.InsertProject(ctx, in)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, audit.ActionCreateProject, "project", id, in.Name)
	return s.Store.GetProject(ctx, id)
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.Store.GetProject(ctx, id)
}

func (s *Service) ListProjects(ctx context.Context, status string) ([]Project, error) {
	if status != "" && !projectStatuses[status] {
		return nil, fmt.Errorf("%w: unknown project status %q", ErrValidation, status)
	}
	return s.Store.ListProjects(ctx, status)
}

func (s *Service) SetProjectStatus(ctx context.Context, projectID, status, actorID string) error {
	if !projectStatuses[status] {
		return fmt.Errorf("%w: unknown project status %q", ErrValidation, status)
	}
	if err := s.Store.SetProjectStatus(ctx, projectID, status); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionUpdateProject, "project", projectID, "status: "+status)
	return nil
}

func (s *Service) DeleteProject(ctx context.Context, projectID, actorID string) error {
	project, err := s.Store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionDeleteProject, "project", projectID, project.Name)
	return nil
}

func (s *Service) Assign(ctx context.Context, projectID, employeeID string) (string, error) {
	if projectID == "" || employeeID == "" {
		return "", fmt.Errorf("%w: project and employee are required", ErrValidation)
	}
	return s.Store.UpsertAssignment(ctx, projectID, employeeID)
}

func (s *Service) Unassign(ctx context.Context, projectID, employeeID string) error {
	return s.Store.DeleteAssignment(ctx, projectID, employeeID)
}

func (s *Service) ListAssignments(ctx context.Context, projectID string) ([]Assignment, error) {
	return s.Store.ListAssignments(ctx, projectID)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityType, entityID, detail string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, entityType, entityID, detail); err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
