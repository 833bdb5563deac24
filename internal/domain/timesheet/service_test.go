package timesheet

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"timesheet/internal/domain/auth"
)

type fakeStore struct {
	entries     map[string]*Entry
	assignments map[string]bool   // "projectID/employeeID"
	managers    map[string]string // projectID -> manager user ID
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:     map[string]*Entry{},
		assignments: map[string]bool{},
		managers:    map[string]string{},
	}
}

func (f *fakeStore) InsertEntry(_ context.Context, entry *Entry) (string, error) {
	f.nextID++
	id := fmt.Sprintf("entry-%d", f.nextID)
	stored := *entry
	stored.ID = id
	f.entries[id] = &stored
	return id, nil
}

func (f *fakeStore) GetEntry(_ context.Context, id string) (*Entry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeStore) HasActiveAssignment(_ context.Context, projectID, employeeID string) (bool, error) {
	return f.assignments[projectID+"/"+employeeID], nil
}

func (f *fakeStore) ProjectManagerID(_ context.Context, projectID string) (string, error) {
	return f.managers[projectID], nil
}

func (f *fakeStore) MarkRecalled(_ context.Context, id string, now time.Time) (bool, error) {
	entry, ok := f.entries[id]
	if !ok || entry.Status != StatusSubmitted {
		return false, nil
	}
	entry.Status = StatusRecalled
	entry.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) ApplyReview(_ context.Context, id string, decision Status, reviewerID, comment string, now time.Time) (bool, error) {
	entry, ok := f.entries[id]
	if !ok || entry.Status != StatusSubmitted {
		return false, nil
	}
	entry.Status = decision
	entry.ReviewedBy = reviewerID
	entry.ReviewedAt = &now
	entry.ReviewComment = comment
	entry.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) ListByEmployee(_ context.Context, employeeID string, status Status, _, _ int) ([]Entry, error) {
	var out []Entry
	for _, entry := range f.entries {
		if entry.EmployeeID != employeeID {
			continue
		}
		if status != "" && entry.Status != status {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (f *fakeStore) ListRecallable(_ context.Context, employeeID string, cutoff time.Time) ([]Entry, error) {
	var out []Entry
	for _, entry := range f.entries {
		if entry.EmployeeID != employeeID || entry.Status != StatusSubmitted || entry.SubmittedAt == nil {
			continue
		}
		if entry.SubmittedAt.Before(cutoff) {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (f *fakeStore) ListPending(_ context.Context, reviewer Reviewer) ([]Entry, error) {
	var out []Entry
	for _, entry := range f.entries {
		if entry.Status != StatusSubmitted {
			continue
		}
		if reviewer.Role != auth.RoleAdmin && entry.ProjectID != "" {
			if manager := f.managers[entry.ProjectID]; manager != "" && manager != reviewer.ID {
				continue
			}
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (f *fakeStore) ListReviewed(_ context.Context, _, _ time.Time, status Status, _, _ int) ([]Entry, error) {
	var out []Entry
	for _, entry := range f.entries {
		if entry.Status != StatusApproved && entry.Status != StatusRejected {
			continue
		}
		if status != "" && entry.Status != status {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

type fakeSettings struct {
	window time.Duration
}

func (f *fakeSettings) RecallWindow(context.Context) (time.Duration, error) {
	return f.window, nil
}

type auditEvent struct {
	actorID string
	action  string
}

type fakeAudit struct {
	events []auditEvent
	fail   bool
}

func (f *fakeAudit) Record(_ context.Context, actorID, action, _, _, _ string) error {
	if f.fail {
		return errors.New("audit sink unavailable")
	}
	f.events = append(f.events, auditEvent{actorID: actorID, action: action})
	return nil
}

func (f *fakeAudit) last() auditEvent {
	if len(f.events) == 0 {
		return auditEvent{}
	}
	return f.events[len(f.events)-1]
}

func newTestService() (*Service, *fakeStore, *fakeSettings, *fakeAudit) {
	store := newFakeStore()
	settings := &fakeSettings{window: 24 * time.Hour}
	sink := &fakeAudit{}
	return NewService(store, settings, sink), store, settings, sink
}

var testNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func submitProjectEntry(t *testing.T, svc *Service, store *fakeStore, employeeID, projectID string) *Entry {
	t.Helper()
	store.assignments[projectID+"/"+employeeID] = true
	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  employeeID,
		Kind:        KindProjectWork,
		ProjectID:   projectID,
		TaskType:    "Development",
		StartDate:   testNow,
		PerDay:      Duration{Hours: 8, Minutes: 30},
		Description: "implemented ingestion pipeline",
		Billable:    true,
		Submit:      true,
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return entry
}

func TestCreateProjectEntry(t *testing.T) {
	svc, store, _, sink := newTestService()

	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")
	if entry.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %s", entry.Status)
	}
	if entry.SubmittedAt == nil || !entry.SubmittedAt.Equal(testNow) {
		t.Fatalf("expected submitted_at %v, got %v", testNow, entry.SubmittedAt)
	}
	if entry.TotalHours() != 8.5 {
		t.Fatalf("expected 8.5 total hours, got %v", entry.TotalHours())
	}
	if !entry.Billable {
		t.Fatal("expected project entry to keep its billable flag")
	}
	if sink.last().action != "TIME_ENTRY_SUBMITTED" {
		t.Fatalf("expected TIME_ENTRY_SUBMITTED audit, got %s", sink.last().action)
	}
}

func TestCreateProjectEntryRequiresAssignment(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		Kind:        KindProjectWork,
		ProjectID:   "proj-unassigned",
		StartDate:   testNow,
		PerDay:      Duration{Hours: 8},
		Description: "work",
		Submit:      true,
	}, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateEntryDraftAllowsEmptyDescription(t *testing.T) {
	svc, store, _, sink := newTestService()
	store.assignments["proj-1/emp-1"] = true

	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID: "emp-1",
		Kind:       KindProjectWork,
		ProjectID:  "proj-1",
		StartDate:  testNow,
		PerDay:     Duration{Hours: 4},
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Status != StatusDraft {
		t.Fatalf("expected draft, got %s", entry.Status)
	}
	if entry.SubmittedAt != nil {
		t.Fatal("draft must not carry submitted_at")
	}
	if sink.last().action != "TIME_ENTRY_DRAFT" {
		t.Fatalf("expected TIME_ENTRY_DRAFT audit, got %s", sink.last().action)
	}
}

func TestCreateEntrySubmitRequiresDescription(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.assignments["proj-1/emp-1"] = true

	_, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID: "emp-1",
		Kind:       KindProjectWork,
		ProjectID:  "proj-1",
		StartDate:  testNow,
		PerDay:     Duration{Hours: 8},
		Submit:     true,
	}, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateInternalEntryRange(t *testing.T) {
	svc, _, _, _ := newTestService()

	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		Kind:        KindInternal,
		Category:    CategoryLeave,
		TaskType:    "Annual Leave",
		StartDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		PerDay:      Duration{Hours: 8},
		Description: "family trip",
		Billable:    true, // must be overridden
		Submit:      true,
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Hours != 24 {
		t.Fatalf("expected 24 aggregate hours for 3 days x 8h, got %v", entry.Hours)
	}
	if entry.Billable {
		t.Fatal("internal entries must never be billable")
	}
	if entry.ProjectID != "" {
		t.Fatal("internal entries must not reference a project")
	}
}

func TestCreateInternalEntryInvalid(t *testing.T) {
	svc, _, _, _ := newTestService()

	// Inverted date range.
	_, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		Kind:        KindInternal,
		Category:    CategoryTraining,
		StartDate:   time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		PerDay:      Duration{Hours: 8},
		Description: "course",
		Submit:      true,
	}, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for inverted range, got %v", err)
	}

	// Unknown category.
	_, err = svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		Kind:        KindInternal,
		Category:    "Sabbatical",
		StartDate:   testNow,
		EndDate:     testNow,
		PerDay:      Duration{Hours: 8},
		Description: "time off",
	}, testNow)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown category, got %v", err)
	}
}

func TestRecallWithinWindow(t *testing.T) {
	svc, store, _, sink := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	recalled, err := svc.Recall(context.Background(), entry.ID, "emp-1", testNow.Add(23*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recalled.Status != StatusRecalled {
		t.Fatalf("expected recalled, got %s", recalled.Status)
	}
	if sink.last().action != "RECALL_ENTRY" {
		t.Fatalf("expected RECALL_ENTRY audit, got %s", sink.last().action)
	}
}

func TestRecallAtExactBoundary(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	if _, err := svc.Recall(context.Background(), entry.ID, "emp-1", testNow.Add(24*time.Hour)); err != nil {
		t.Fatalf("recall at the inclusive boundary must succeed: %v", err)
	}
}

func TestRecallWindowExpired(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	_, err := svc.Recall(context.Background(), entry.ID, "emp-1", testNow.Add(25*time.Hour))
	if !errors.Is(err, ErrRecallWindowExpired) {
		t.Fatalf("expected ErrRecallWindowExpired, got %v", err)
	}
}

func TestRecallWindowReadLive(t *testing.T) {
	svc, store, settings, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	// At 25h the default 24h window has elapsed.
	at := testNow.Add(25 * time.Hour)
	if _, err := svc.Recall(context.Background(), entry.ID, "emp-1", at); !errors.Is(err, ErrRecallWindowExpired) {
		t.Fatalf("expected ErrRecallWindowExpired, got %v", err)
	}

	// Widening the setting immediately changes eligibility for the same
	// pending entry.
	settings.window = 48 * time.Hour
	if _, err := svc.Recall(context.Background(), entry.ID, "emp-1", at); err != nil {
		t.Fatalf("expected recall to succeed after window widened: %v", err)
	}
}

func TestRecallByNonOwner(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	_, err := svc.Recall(context.Background(), entry.ID, "emp-2", testNow.Add(time.Hour))
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestRecallInvalidState(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	admin := Reviewer{ID: "admin-1", Role: auth.RoleAdmin}
	if _, err := svc.Review(context.Background(), entry.ID, StatusApproved, admin, "", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Recall(context.Background(), entry.ID, "emp-1", testNow.Add(2*time.Hour))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after approval, got %v", err)
	}
}

func TestReviewApprove(t *testing.T) {
	svc, store, _, sink := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	admin := Reviewer{ID: "admin-1", Role: auth.RoleAdmin}
	reviewedAt := testNow.Add(time.Hour)
	approved, err := svc.Review(context.Background(), entry.ID, StatusApproved, admin, "", reviewedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ReviewedBy != "admin-1" {
		t.Fatalf("expected reviewer admin-1, got %s", approved.ReviewedBy)
	}
	if approved.ReviewedAt == nil || !approved.ReviewedAt.Equal(reviewedAt) {
		t.Fatalf("expected reviewed_at %v, got %v", reviewedAt, approved.ReviewedAt)
	}
	if sink.last().action != "ENTRY_APPROVED" {
		t.Fatalf("expected ENTRY_APPROVED audit, got %s", sink.last().action)
	}
}

func TestReviewRejectRequiresComment(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	admin := Reviewer{ID: "admin-1", Role: auth.RoleAdmin}
	_, err := svc.Review(context.Background(), entry.ID, StatusRejected, admin, "   ", testNow.Add(time.Hour))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty rejection comment, got %v", err)
	}

	rejected, err := svc.Review(context.Background(), entry.ID, StatusRejected, admin, "hours do not match the sprint log", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.ReviewComment == "" {
		t.Fatal("expected rejection comment to be recorded")
	}
}

func TestReviewAuthorization(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.managers["proj-1"] = "mgr-owner"
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	// Manager of a different project.
	outsider := Reviewer{ID: "mgr-other", Role: auth.RoleManager}
	_, err := svc.Review(context.Background(), entry.ID, StatusApproved, outsider, "", testNow.Add(time.Hour))
	if !errors.Is(err, ErrUnauthorizedReviewer) {
		t.Fatalf("expected ErrUnauthorizedReviewer, got %v", err)
	}

	// Employees can never review.
	employee := Reviewer{ID: "emp-2", Role: auth.RoleEmployee}
	_, err = svc.Review(context.Background(), entry.ID, StatusApproved, employee, "", testNow.Add(time.Hour))
	if !errors.Is(err, ErrUnauthorizedReviewer) {
		t.Fatalf("expected ErrUnauthorizedReviewer for employee, got %v", err)
	}

	// The owning manager succeeds.
	owner := Reviewer{ID: "mgr-owner", Role: auth.RoleManager}
	if _, err := svc.Review(context.Background(), entry.ID, StatusApproved, owner, "", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error for owning manager: %v", err)
	}
}

func TestReviewInternalEntryAnyManager(t *testing.T) {
	svc, _, _, _ := newTestService()

	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-1",
		Kind:        KindInternal,
		Category:    CategoryTraining,
		TaskType:    "External Course",
		StartDate:   testNow,
		EndDate:     testNow,
		PerDay:      Duration{Hours: 8},
		Description: "certification prep",
		Submit:      true,
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager := Reviewer{ID: "mgr-any", Role: auth.RoleManager}
	if _, err := svc.Review(context.Background(), entry.ID, StatusApproved, manager, "", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("any manager must be able to review internal entries: %v", err)
	}
}

func TestReviewRaceSingleWinner(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	first := Reviewer{ID: "admin-1", Role: auth.RoleAdmin}
	second := Reviewer{ID: "admin-2", Role: auth.RoleAdmin}

	if _, err := svc.Review(context.Background(), entry.ID, StatusApproved, first, "", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("first review must succeed: %v", err)
	}
	_, err := svc.Review(context.Background(), entry.ID, StatusRejected, second, "duplicate entry", testNow.Add(time.Hour))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second review must observe ErrInvalidState, got %v", err)
	}
}

func TestReviewDraftEntry(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.assignments["proj-1/emp-1"] = true
	entry, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID: "emp-1",
		Kind:       KindProjectWork,
		ProjectID:  "proj-1",
		StartDate:  testNow,
		PerDay:     Duration{Hours: 8},
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	admin := Reviewer{ID: "admin-1", Role: auth.RoleAdmin}
	_, err = svc.Review(context.Background(), entry.ID, StatusApproved, admin, "", testNow)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("draft entries must not be reviewable, got %v", err)
	}
}

func TestAuditFailureDoesNotBlockMutation(t *testing.T) {
	svc, store, _, sink := newTestService()
	sink.fail = true

	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")
	if entry.Status != StatusSubmitted {
		t.Fatalf("mutation must succeed despite audit failure, got %s", entry.Status)
	}

	if _, err := svc.Recall(context.Background(), entry.ID, "emp-1", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("recall must succeed despite audit failure: %v", err)
	}
}

func TestListRecallable(t *testing.T) {
	svc, store, _, _ := newTestService()
	entry := submitProjectEntry(t, svc, store, "emp-1", "proj-1")

	candidates, err := svc.ListRecallable(context.Background(), "emp-1", testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 recallable entry, got %d", len(candidates))
	}
	if candidates[0].Entry.ID != entry.ID {
		t.Fatalf("unexpected entry %s", candidates[0].Entry.ID)
	}
	if candidates[0].Remaining != 22*time.Hour {
		t.Fatalf("expected 22h remaining, got %v", candidates[0].Remaining)
	}

	candidates, err = svc.ListRecallable(context.Background(), "emp-1", testNow.Add(30*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no recallable entries past the window, got %d", len(candidates))
	}
}

func TestPendingReviewsScope(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.managers["proj-owned"] = "mgr-1"
	store.managers["proj-foreign"] = "mgr-2"

	submitProjectEntry(t, svc, store, "emp-1", "proj-owned")
	submitProjectEntry(t, svc, store, "emp-2", "proj-foreign")
	if _, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		EmployeeID:  "emp-3",
		Kind:        KindInternal,
		Category:    CategoryLeave,
		TaskType:    "Sick Leave",
		StartDate:   testNow,
		EndDate:     testNow,
		PerDay:      Duration{Hours: 8},
		Description: "flu",
		Submit:      true,
	}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager := Reviewer{ID: "mgr-1", Role: auth.RoleManager}
	pending, err := svc.PendingReviews(context.Background(), manager)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("manager should see own project + internal entries, got %d", len(pending))
	}

	admin := Reviewer{ID: "admin-1", Role: auth.RoleAdmin}
	pending, err = svc.PendingReviews(context.Background(), admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("admin should see all pending entries, got %d", len(pending))
	}

	employee := Reviewer{ID: "emp-1", Role: auth.RoleEmployee}
	if _, err := svc.PendingReviews(context.Background(), employee); !errors.Is(err, ErrUnauthorizedReviewer) {
		t.Fatalf("expected ErrUnauthorizedReviewer, got %v", err)
	}
}
