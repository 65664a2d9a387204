package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leavedesk/internal/platform/querier"
)

type BalanceRow struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	LeaveType    string `json:"leaveType"`
	Year         int    `json:"year"`
	TotalDays    string `json:"totalDays"`
	UsedDays     string `json:"usedDays"`
}

type CalendarRow struct {
	EmployeeName string
	LeaveType    string
	FromDate     time.Time
	ToDate       time.Time
	Status       string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Balances(ctx context.Context, year int) ([]BalanceRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT q.employee_id, e.first_name || ' ' || e.last_name, lt.name, q.year, q.total_days::text, q.used_days::text
    FROM leave_quotas q
    JOIN employees e ON e.id = q.employee_id
    JOIN leave_types lt ON lt.id = q.leave_type_id
    WHERE q.year = $1
    ORDER BY e.id, lt.name
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRow
	for rows.Next() {
		var row BalanceRow
		if err := rows.Scan(&row.EmployeeID, &row.EmployeeName, &row.LeaveType, &row.Year, &row.TotalDays, &row.UsedDays); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CalendarPDF renders the approved and open leave for [from, to] as a
// one-page-per-overflow PDF table.
func (s *Service) CalendarPDF(ctx context.Context, from, to time.Time) ([]byte, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.first_name || ' ' || e.last_name, lt.name, lr.from_date, lr.to_date, lr.status
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    JOIN leave_types lt ON lt.id = lr.leave_type_id
    WHERE lr.status IN ('open', 'approved') AND lr.from_date <= $2 AND lr.to_date >= $1
    ORDER BY lr.from_date, e.id
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CalendarRow
	for rows.Next() {
		var row CalendarRow
		if err := rows.Scan(&row.EmployeeName, &row.LeaveType, &row.FromDate, &row.ToDate, &row.Status); err != nil {
			return nil, err
		}
		entries = append(entries, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Calendar")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 7, "Employee", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "From", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "To", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, entry := range entries {
		pdf.CellFormat(60, 7, entry.EmployeeName, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, entry.LeaveType, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, entry.FromDate.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, entry.ToDate.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, entry.Status, "1", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
