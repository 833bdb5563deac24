package reports

import (
	"context"
	"time"
)

// SettingsReader supplies the live reporting thresholds. Both reads go
// to storage on every call.
type SettingsReader interface {
	OvertimeThreshold(ctx context.Context) (float64, error)
	WorkWeekStart(ctx context.Context) (time.Weekday, error)
}

// StoreAPI is the aggregation surface the service depends on.
type StoreAPI interface {
	EmployeeSummaries(ctx context.Context, r DateRange) ([]EmployeeSummary, error)
	EmployeeDayTotals(ctx context.Context, employeeID string, r DateRange) ([]DayTotal, error)
	EmployeeActivity(ctx context.Context, employeeID string, r DateRange) (*MyActivity, error)
	ProjectSummaries(ctx context.Context, r DateRange) ([]ProjectSummary, error)
	ClientSummaries(ctx context.Context, r DateRange) ([]ClientSummary, error)
	InternalSummaries(ctx context.Context, r DateRange) ([]InternalSummary, error)
	TeamOverview(ctx context.Context, managerID string, r DateRange) ([]TeamMember, error)
	Dashboard(ctx context.Context, weekStart time.Time) (*DashboardMetrics, error)
}

type Service struct {
	Store    StoreAPI
	Settings SettingsReader
}

func NewService(store StoreAPI, settings SettingsReader) *Service {
	return &Service{Store: store, Settings: settings}
}

// EmployeeReport returns per-employee summaries with overtime day counts
// computed against the live threshold.
func (s *Service) EmployeeReport(ctx context.Context, r DateRange) ([]EmployeeSummary, error) {
	summaries, err := s.Store.EmployeeSummaries(ctx, r)
	if err != nil {
		return nil, err
	}
	threshold, err := s.Settings.OvertimeThreshold(ctx)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		days, err := s.Store.EmployeeDayTotals(ctx, summaries[i].EmployeeID, r)
		if err != nil {
			return nil, err
		}
		summaries[i].OvertimeDays = OvertimeDays(days, threshold)
	}
	return summaries, nil
}

// MyActivity summarises the caller's last seven days of logging.
func (s *Service) MyActivity(ctx context.Context, employeeID string, now time.Time) (*MyActivity, error) {
	r := DateRange{From: now.AddDate(0, 0, -7), To: now}
	activity, err := s.Store.EmployeeActivity(ctx, employeeID, r)
	if err != nil {
		return nil, err
	}
	days, err := s.Store.EmployeeDayTotals(ctx, employeeID, r)
	if err != nil {
		return nil, err
	}
	activity.Days = days
	activity.BillableRatio = BillableRatio(activity.BillableHours, activity.TotalHours)
	return activity, nil
}

func (s *Service) ProjectReport(ctx context.Context, r DateRange) ([]ProjectSummary, error) {
	return s.Store.ProjectSummaries(ctx, r)
}

func (s *Service) ClientReport(ctx context.Context, r DateRange) ([]ClientSummary, error) {
	return s.Store.ClientSummaries(ctx, r)
}

func (s *Service) InternalReport(ctx context.Context, r DateRange) ([]InternalSummary, error) {
	return s.Store.InternalSummaries(ctx, r)
}

func (s *Service) TeamOverview(ctx context.Context, managerID string, r DateRange) ([]TeamMember, error) {
	return s.Store.TeamOverview(ctx, managerID, r)
}

// Dashboard computes the current-week metrics, anchoring the week on the
// configured start day.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*DashboardMetrics, error) {
	startDay, err := s.Settings.WorkWeekStart(ctx)
	if err != nil {
		return nil, err
	}
	return s.Store.Dashboard(ctx, WeekStart(now, startDay))
}
