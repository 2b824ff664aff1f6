package payroll

import (
	"bytes"
	"fmt"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "Payroll"
)

var exportHeaders = []string{
	"Payroll ID", "Staff ID", "First Name", "Last Name", "Position",
	"Period Start", "Period End", "Salary Type", "Base Salary",
	"Hours Worked", "Days Worked", "Calculated Pay",
	"Total Additions", "Total Deductions", "Net Pay",
	"Attendance Count", "Status", "Paid At",
}

// buildWorkbook renders records as a single-sheet xlsx file. Amounts are
// written as numbers so spreadsheet sums work.
func buildWorkbook(biz business.Business, records []payroll.PayrollRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		var firstName, lastName, position string
		if r.Staff != nil {
			firstName, lastName, position = r.Staff.FirstName, r.Staff.LastName, r.Staff.Position
		}
		additions := ComputeNetPay(r.CalculatedPay, r.Additions, nil).Sub(r.CalculatedPay)
		deductions := r.CalculatedPay.Sub(ComputeNetPay(r.CalculatedPay, nil, r.Deductions))

		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.UTC().Format("2006-01-02 15:04:05")
		}

		row := []interface{}{
			r.ID, r.StaffID, firstName, lastName, position,
			payroll.FormatDate(r.PeriodStart), payroll.FormatDate(r.PeriodEnd), string(r.SalaryType),
			r.BaseSalary.InexactFloat64(),
			r.TotalHoursWorked.InexactFloat64(), r.TotalDaysWorked,
			r.CalculatedPay.InexactFloat64(),
			additions.InexactFloat64(), deductions.InexactFloat64(),
			r.NetPay.InexactFloat64(),
			r.AttendanceCount, string(r.Status), paidAt,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write payroll row: %w", err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Payroll export - %s", biz.Name),
		Creator: "staffdesk",
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
