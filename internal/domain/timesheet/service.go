package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timesheet/internal/domain/audit"
	"timesheet/internal/domain/auth"
)

type Service struct {
	Store    StoreAPI
	Settings SettingsProvider
	Audit    AuditRecorder
}

func NewService(store StoreAPI, settings SettingsProvider, auditSink AuditRecorder) *Service {
	return &Service{Store: store, Settings: settings, Audit: auditSink}
}

var internalCategories = map[string]bool{
	CategoryLeave:    true,
	CategoryAbsence:  true,
	CategoryTraining: true,
}

// CreateEntry validates and persists a new entry in draft or submitted
// state. There is no separate submit transition: submitting at creation
// time stamps submitted_at directly.
func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput, now time.Time) (*Entry, error) {
	if err := ValidateDuration(in.PerDay); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if in.Submit && description == "" {
		return nil, fmt.Errorf("%w: description is required when submitting", ErrValidation)
	}

	entry := &Entry{
		EmployeeID:  in.EmployeeID,
		Kind:        in.Kind,
		TaskType:    strings.TrimSpace(in.TaskType),
		Description: description,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch in.Kind {
	case KindProjectWork:
		if in.ProjectID == "" {
			return nil, fmt.Errorf("%w: project is required for project work", ErrValidation)
		}
		assigned, err := s.Store.HasActiveAssignment(ctx, in.ProjectID, in.EmployeeID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, fmt.Errorf("%w: no active assignment to this project", ErrValidation)
		}
		day := truncateToDay(in.StartDate)
		entry.ProjectID = in.ProjectID
		entry.StartDate = day
		entry.EndDate = day
		entry.Hours = float64(in.PerDay.Hours)
		entry.Minutes = in.PerDay.Minutes
		entry.Billable = in.Billable
	case KindInternal:
		if !internalCategories[in.Category] {
			return nil, fmt.Errorf("%w: unknown internal category %q", ErrValidation, in.Category)
		}
		days, err := DaysInRange(in.StartDate, in.EndDate)
		if err != nil {
			return nil, err
		}
		entry.Category = in.Category
		entry.StartDate = truncateToDay(in.StartDate)
		entry.EndDate = truncateToDay(in.EndDate)
		// Aggregate hours/day over the whole range; internal time is
		// never billable.
		entry.Hours = in.PerDay.Fractional() * float64(days)
		entry.Minutes = 0
		entry.Billable = false
	default:
		return nil, fmt.Errorf("%w: unknown entry kind %q", ErrValidation, in.Kind)
	}

	action := audit.ActionEntryDraft
	if in.Submit {
		entry.Status = StatusSubmitted
		submitted := now
		entry.SubmittedAt = &submitted
		action = audit.ActionEntrySubmitted
	}

	id, err := s.Store.InsertEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	detail := entry.TaskType
	if entry.Kind == KindInternal {
		detail = entry.Category + ": " + entry.TaskType
	}
	s.recordAudit(ctx, entry.EmployeeID, action, "time_entry", id, detail)
	return entry, nil
}

// Recall reverts a submitted entry to recalled, provided the actor owns it
// and the live recall window has not elapsed. The window boundary is
// inclusive.
func (s *Service) Recall(ctx context.Context, entryID, actorID string, now time.Time) (*Entry, error) {
	entry, err := s.Store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.EmployeeID != actorID {
		return nil, ErrNotOwner
	}
	if entry.Status != StatusSubmitted {
		return nil, ErrInvalidState
	}

	window, err := s.Settings.RecallWindow(ctx)
	if err != nil {
		return nil, err
	}
	if eligible, _ := RecallEligibility(entry, now, window); !eligible {
		return nil, ErrRecallWindowExpired
	}

	ok, err := s.Store.MarkRecalled(ctx, entryID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A reviewer won the race between our read and the update.
		return nil, ErrInvalidState
	}

	entry.Status = StatusRecalled
	entry.UpdatedAt = now
	s.recordAudit(ctx, actorID, audit.ActionEntryRecalled, "time_entry", entryID, "")
	return entry, nil
}

// Review applies a manager or admin decision to a submitted entry.
func (s *Service) Review(ctx context.Context, entryID string, decision Status, reviewer Reviewer, comment string, now time.Time) (*Entry, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrValidation)
	}
	comment = strings.TrimSpace(comment)
	if decision == StatusRejected && comment == "" {
		return nil, fmt.Errorf("%w: rejection requires a comment", ErrValidation)
	}

	entry, err := s.Store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != StatusSubmitted {
		return nil, ErrInvalidState
	}
	if err := s.authorizeReviewer(ctx, entry, reviewer); err != nil {
		return nil, err
	}

	ok, err := s.Store.ApplyReview(ctx, entryID, decision, reviewer.ID, comment, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Exactly one of two racing reviewers gets the conditional
		// update; the other lands here.
		return nil, ErrInvalidState
	}

	entry.Status = decision
	entry.ReviewedBy = reviewer.ID
	reviewed := now
	entry.ReviewedAt = &reviewed
	entry.ReviewComment = comment
	entry.UpdatedAt = now

	action := audit.ActionEntryApproved
	if decision == StatusRejected {
		action = audit.ActionEntryRejected
	}
	s.recordAudit(ctx, reviewer.ID, action, "time_entry", entryID, comment)
	return entry, nil
}

func (s *Service) authorizeReviewer(ctx context.Context, entry *Entry, reviewer Reviewer) error {
	switch reviewer.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleManager:
		// Internal entries carry no project and are reviewable by any
		// manager, as are project entries without a dedicated manager.
		if entry.ProjectID == "" {
			return nil
		}
		managerID, err := s.Store.ProjectManagerID(ctx, entry.ProjectID)
		if err != nil {
			return err
		}
		if managerID == "" || managerID == reviewer.ID {
			return nil
		}
		return ErrUnauthorizedReviewer
	case auth.RoleEmployee:
		return ErrUnauthorizedReviewer
	default:
		return ErrUnauthorizedReviewer
	}
}

func (s *Service) Get(ctx context.Context, entryID string) (*Entry, error) {
	return s.Store.GetEntry(ctx, entryID)
}

func (s *Service) ListMine(ctx context.Context, employeeID string, status Status, limit, offset int) ([]Entry, error) {
	return s.Store.ListByEmployee(ctx, employeeID, status, limit, offset)
}

// RecallCandidate pairs a submitted entry with the time remaining in its
// recall window, for display.
type RecallCandidate struct {
	Entry     Entry         `json:"entry"`
	Remaining time.Duration `json:"remainingSeconds"`
}

// ListRecallable returns the actor's submitted entries that are still
// inside the recall window as of now.
func (s *Service) ListRecallable(ctx context.Context, employeeID string, now time.Time) ([]RecallCandidate, error) {
	window, err := s.Settings.RecallWindow(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Store.ListRecallable(ctx, employeeID, now.Add(-window))
	if err != nil {
		return nil, err
	}

	out := make([]RecallCandidate, 0, len(entries))
	for i := range entries {
		eligible, remaining := RecallEligibility(&entries[i], now, window)
		if !eligible {
			continue
		}
		out = append(out, RecallCandidate{Entry: entries[i], Remaining: remaining})
	}
	return out, nil
}

// PendingReviews returns submitted entries visible to the reviewer:
// admins see everything, managers see their projects' entries plus all
// internal and unmanaged-project entries.
func (s *Service) PendingReviews(ctx context.Context, reviewer Reviewer) ([]Entry, error) {
	if !reviewer.Role.CanReview() {
		return nil, ErrUnauthorizedReviewer
	}
	return s.Store.ListPending(ctx, reviewer)
}

func (s *Service) ReviewHistory(ctx context.Context, from, to time.Time, status Status, limit, offset int) ([]Entry, error) {
	return s.Store.ListReviewed(ctx, from, to, status, limit, offset)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityType, entityID, detail string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, entityType, entityID, detail); err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
