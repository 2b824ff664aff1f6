package payroll

import (
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/staff"
	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places kept for amounts.
// Rounding is half away from zero.
const CurrencyPrecision = 2

var monthsPerYear = decimal.NewFromInt(12)

// CalculatePay returns gross pay for one period.
//
// Annual salaries are divided by 12 for every period regardless of its
// length. Unknown salary types yield zero; callers treat that as a data error.
func CalculatePay(salaryType staff.SalaryType, baseSalary, totalHoursWorked decimal.Decimal, totalDaysWorked int) decimal.Decimal {
	switch salaryType {
	case staff.SalaryHourly:
		return baseSalary.Mul(totalHoursWorked).Round(CurrencyPrecision)
	case staff.SalaryDaily:
		return baseSalary.Mul(decimal.NewFromInt(int64(totalDaysWorked))).Round(CurrencyPrecision)
	case staff.SalaryMonthly:
		return baseSalary
	case staff.SalaryAnnual:
		return baseSalary.Div(monthsPerYear).Round(CurrencyPrecision)
	default:
		return decimal.Zero
	}
}

// ComputeNetPay returns calculatedPay + Σadditions - Σdeductions. The result
// may be negative.
func ComputeNetPay(calculatedPay decimal.Decimal, additions, deductions []payroll.Adjustment) decimal.Decimal {
	net := calculatedPay
	for _, a := range additions {
		net = net.Add(a.Amount)
	}
	for _, d := range deductions {
		net = net.Sub(d.Amount)
	}
	return net
}

// attendanceTotals folds approved shifts into the calculator inputs. Days are
// distinct UTC calendar dates of clock-in.
type attendanceTotals struct {
	Hours decimal.Decimal
	Days  int
	IDs   []string
}

func aggregateAttendance(records []attendance.Attendance) attendanceTotals {
	totals := attendanceTotals{Hours: decimal.Zero, IDs: make([]string, 0, len(records))}
	days := make(map[string]struct{})

	for _, r := range records {
		if r.HoursWorked != nil {
			totals.Hours = totals.Hours.Add(*r.HoursWorked)
		}
		days[r.ClockIn.UTC().Format(time.DateOnly)] = struct{}{}
		totals.IDs = append(totals.IDs, r.ID)
	}

	totals.Days = len(days)
	return totals
}
