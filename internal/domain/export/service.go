package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"timesheet/internal/domain/audit"
)

// SettingsReader supplies branding for generated documents.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, detail string) error
}

type Service struct {
	Store    *Store
	Settings SettingsReader
	Audit    AuditRecorder
}

func NewService(store *Store, settings SettingsReader, auditSink AuditRecorder) *Service {
	return &Service{Store: store, Settings: settings, Audit: auditSink}
}

func (s *Service) Entries(ctx context.Context, f EntryFilter) ([]EntryRow, error) {
	return s.Store.EntryRows(ctx, f)
}

func (s *Service) Users(ctx context.Context) ([]UserRow, error) {
	return s.Store.UserRows(ctx)
}

func (s *Service) Projects(ctx context.Context) ([]ProjectRow, error) {
	return s.Store.ProjectRows(ctx)
}

// WriteBackup streams a full-database Excel workbook, one sheet per
// table. The export itself is an audited action.
func (s *Service) WriteBackup(ctx context.Context, w io.Writer, actorID string) error {
	workbook := excelize.NewFile()
	defer workbook.Close()

	for i, table := range backupTables {
		if i == 0 {
			if err := workbook.SetSheetName(workbook.GetSheetName(0), table.Sheet); err != nil {
				return err
			}
		} else {
			if _, err := workbook.NewSheet(table.Sheet); err != nil {
				return err
			}
		}
		for col, header := range table.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := workbook.SetCellValue(table.Sheet, cell, header); err != nil {
				return err
			}
		}
		records, err := s.Store.tableRows(ctx, table.Query)
		if err != nil {
			return err
		}
		for rowIdx, record := range records {
			for col, value := range record {
				cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err != nil {
					return err
				}
				if err := workbook.SetCellValue(table.Sheet, cell, value); err != nil {
					return err
				}
			}
		}
	}

	if _, err := workbook.WriteTo(w); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, audit.ActionExportBackup, "backup", "", "full workbook")
	return nil
}

// WriteTimesheetPDF renders one employee's entries in a range as a
// printable timesheet.
func (s *Service) WriteTimesheetPDF(ctx context.Context, w io.Writer, f EntryFilter) error {
	if f.EmployeeID == "" {
		return fmt.Errorf("employee is required for a timesheet pdf")
	}
	entries, err := s.Store.EntryRows(ctx, f)
	if err != nil {
		return err
	}
	company, err := s.Settings.Get(ctx, "company_name")
	if err != nil {
		return err
	}

	employeeName := ""
	if len(entries) > 0 {
		employeeName = entries[0].EmployeeName
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("%s - Timesheet", company))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", employeeName))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", f.From.Format("2006-01-02"), f.To.Format("2006-01-02")))
	pdf.Ln(10)

	headers := []string{"Date", "Client", "Project / Category", "Task", "Hours", "Billable", "Status"}
	widths := []float64{25, 45, 60, 50, 20, 20, 25}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	var total float64
	for _, entry := range entries {
		scope := entry.ProjectName
		if entry.Kind == "internal" {
			scope = entry.Category
		}
		billable := "no"
		if entry.Billable {
			billable = "yes"
		}
		cells := []string{
			entry.StartDate.Format("2006-01-02"),
			entry.ClientName,
			scope,
			entry.TaskType,
			fmt.Sprintf("%.2f", entry.TotalHours()),
			billable,
			entry.Status,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		total += entry.TotalHours()
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f hours over %d entries", total, len(entries)))

	return pdf.Output(w)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityType, entityID, detail string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, entityType, entityID, detail); err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
