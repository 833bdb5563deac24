package timesheet

import (
	"context"
	"time"
)

// StoreAPI is the persistence surface the lifecycle service needs. The
// conditional mutations (MarkRecalled, ApplyReview) must be atomic
// "update where status='submitted'" operations so racing transitions have
// exactly one winner.
type StoreAPI interface {
	InsertEntry(ctx context.Context, entry *Entry) (string, error)
	GetEntry(ctx context.Context, id string) (*Entry, error)
	HasActiveAssignment(ctx context.Context, projectID, employeeID string) (bool, error)
	ProjectManagerID(ctx context.Context, projectID string) (string, error)
	MarkRecalled(ctx context.Context, id string, now time.Time) (bool, error)
	ApplyReview(ctx context.Context, id string, decision Status, reviewerID, comment string, now time.Time) (bool, error)
	ListByEmployee(ctx context.Context, employeeID string, status Status, limit, offset int) ([]Entry, error)
	ListRecallable(ctx context.Context, employeeID string, cutoff time.Time) ([]Entry, error)
	ListPending(ctx context.Context, reviewer Reviewer) ([]Entry, error)
	ListReviewed(ctx context.Context, from, to time.Time, status Status, limit, offset int) ([]Entry, error)
}

// SettingsProvider supplies the live recall window. Implementations must
// not cache: a settings change is visible to the very next check.
type SettingsProvider interface {
	RecallWindow(ctx context.Context) (time.Duration, error)
}

// AuditRecorder is the append-only audit sink. Writes are best-effort
// from the service's point of view.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, detail string) error
}
