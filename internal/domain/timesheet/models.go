package timesheet

import (
	"time"

	"timesheet/internal/domain/auth"
)

// Status is the entry lifecycle state. Valid transitions are
// draft|submitted at creation, submitted -> approved|rejected via review,
// and submitted -> recalled via the owner's recall inside the window.
// approved, rejected and recalled are terminal.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusRecalled  Status = "recalled"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusRecalled
}

// Kind distinguishes client project work from internal categories
// (leave, training, absence).
type Kind string

const (
	KindProjectWork Kind = "project_work"
	KindInternal    Kind = "internal"
)

// Internal entry categories.
const (
	CategoryLeave    = "Leave"
	CategoryAbsence  = "Other Absence"
	CategoryTraining = "Training"
)

type Entry struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	ProjectID     string     `json:"projectId,omitempty"`
	Kind          Kind       `json:"kind"`
	Category      string     `json:"category,omitempty"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	Hours         float64    `json:"hours"`
	Minutes       int        `json:"minutes"`
	Description   string     `json:"description"`
	TaskType      string     `json:"taskType"`
	Billable      bool       `json:"billable"`
	Status        Status     `json:"status"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	ReviewedBy    string     `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	ReviewComment string     `json:"reviewComment,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TotalHours normalizes the stored hours+minutes pair to a fractional-hour
// quantity. Internal range entries already store an aggregate in Hours with
// Minutes zero, so this is correct for both kinds.
func (e *Entry) TotalHours() float64 {
	return e.Hours + float64(e.Minutes)/60
}

// Duration is a per-day duration as entered on a form. Minutes snap to
// quarter hours.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (d Duration) Fractional() float64 {
	return float64(d.Hours) + float64(d.Minutes)/60
}

type CreateEntryInput struct {
	EmployeeID  string
	Kind        Kind
	ProjectID   string
	Category    string
	TaskType    string
	StartDate   time.Time
	EndDate     time.Time
	PerDay      Duration
	Description string
	Billable    bool
	Submit      bool
}

// Reviewer identifies the acting reviewer for Review. The role comes from
// the authenticated request context; the service trusts it.
type Reviewer struct {
	ID   string
	Role auth.Role
}
