package export

import "time"

// EntryRow is a time entry flattened for CSV, Excel and PDF output.
type EntryRow struct {
	ID            string
	EmployeeName  string
	Username      string
	ClientName    string
	ProjectName   string
	Kind          string
	Category      string
	TaskType      string
	StartDate     time.Time
	EndDate       time.Time
	Hours         float64
	Minutes       int
	Description   string
	Billable      bool
	Status        string
	SubmittedAt   *time.Time
	ReviewerName  string
	ReviewedAt    *time.Time
	ReviewComment string
}

// TotalHours sums the fractional hours of one row.
func (r EntryRow) TotalHours() float64 {
	return r.Hours + float64(r.Minutes)/60
}

// UserRow is a directory account flattened for export.
type UserRow struct {
	ID         string
	Username   string
	Email      string
	FullName   string
	Role       string
	Department string
	IsActive   bool
	CreatedAt  time.Time
}

// ProjectRow is a project with its client, manager and team flattened
// for export.
type ProjectRow struct {
	ID          string
	ClientName  string
	Name        string
	ManagerName string
	Status      string
	BudgetHours float64
	Team        string
}

// EntryFilter bounds an entries export.
type EntryFilter struct {
	From         time.Time
	To           time.Time
	OnlyApproved bool
	EmployeeID   string
}
