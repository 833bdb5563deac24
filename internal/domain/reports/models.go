package reports

import "time"

// DateRange bounds a reporting query; both ends are inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// EmployeeSummary aggregates one employee's entries inside a range.
type EmployeeSummary struct {
	EmployeeID     string  `json:"employeeId"`
	FullName       string  `json:"fullName"`
	TotalHours     float64 `json:"totalHours"`
	BillableHours  float64 `json:"billableHours"`
	InternalHours  float64 `json:"internalHours"`
	ApprovedHours  float64 `json:"approvedHours"`
	// ApprovedBillableHours feeds Utilization; the ratio only counts
	// approved time.
	ApprovedBillableHours float64 `json:"approvedBillableHours"`
	SubmittedHours        float64 `json:"submittedHours"`
	EntryCount            int     `json:"entryCount"`
	Utilization           float64 `json:"utilization"`
	OvertimeDays   int     `json:"overtimeDays"`
}

// ProjectSummary aggregates approved hours booked against one project.
type ProjectSummary struct {
	ProjectID     string  `json:"projectId"`
	ProjectName   string  `json:"projectName"`
	ClientName    string  `json:"clientName"`
	TotalHours    float64 `json:"totalHours"`
	BillableHours float64 `json:"billableHours"`
	BudgetHours   float64 `json:"budgetHours"`
	EntryCount    int     `json:"entryCount"`
	HeadCount     int     `json:"headCount"`
}

// ClientSummary rolls project hours up to the client level.
type ClientSummary struct {
	ClientID      string  `json:"clientId"`
	ClientName    string  `json:"clientName"`
	ProjectCount  int     `json:"projectCount"`
	TotalHours    float64 `json:"totalHours"`
	BillableHours float64 `json:"billableHours"`
}

// InternalSummary breaks internal time down by category.
type InternalSummary struct {
	Category   string  `json:"category"`
	TotalHours float64 `json:"totalHours"`
	EntryCount int     `json:"entryCount"`
	HeadCount  int     `json:"headCount"`
}

// MyActivity summarises one employee's own recent logging: seven days of
// totals plus the status mix of their entries.
type MyActivity struct {
	TotalHours    float64        `json:"totalHours"`
	BillableHours float64        `json:"billableHours"`
	BillableRatio float64        `json:"billableRatio"`
	StatusCounts  map[string]int `json:"statusCounts"`
	Days          []DayTotal     `json:"days"`
}

// DayTotal is one employee-day's summed hours, used for overtime
// detection.
type DayTotal struct {
	Day   time.Time `json:"day"`
	Hours float64   `json:"hours"`
}

// TeamMember is one row of a manager's team overview.
type TeamMember struct {
	EmployeeID   string  `json:"employeeId"`
	FullName     string  `json:"fullName"`
	ProjectName  string  `json:"projectName"`
	LoggedHours  float64 `json:"loggedHours"`
	PendingCount int     `json:"pendingCount"`
}

// DashboardMetrics feeds the admin landing page counters.
type DashboardMetrics struct {
	ActiveUsers      int     `json:"activeUsers"`
	ActiveProjects   int     `json:"activeProjects"`
	ActiveClients    int     `json:"activeClients"`
	PendingReviews   int     `json:"pendingReviews"`
	HoursThisWeek    float64 `json:"hoursThisWeek"`
	BillableThisWeek float64 `json:"billableThisWeek"`
}
