package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/domain/attendance"
)

const (
	// Shifts open longer than this are reported for admin follow-up.
	staleShiftAge      = 16 * time.Hour
	staleShiftInterval = time.Hour
)

// StaleShiftReader is the attendance query the shift jobs depend on.
type StaleShiftReader interface {
	ListStaleOpen(ctx context.Context, openedBefore time.Time) ([]attendance.Attendance, error)
}

// AttendanceJobs reports shifts nobody clocked out of. It never closes them;
// a clock-out comes from the staff member or an admin edit.
type AttendanceJobs struct {
	attendanceRepo StaleShiftReader
	now            func() time.Time
}

func NewAttendanceJobs(attendanceRepo StaleShiftReader) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		now:            time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("report_stale_open_shifts", staleShiftInterval, func(ctx context.Context) error {
		_, err := j.ReportStaleShifts(ctx)
		return err
	})
}

// ReportStaleShifts logs every shift open longer than staleShiftAge and
// returns how many were found.
func (j *AttendanceJobs) ReportStaleShifts(ctx context.Context) (int, error) {
	now := j.now().UTC()
	stale, err := j.attendanceRepo.ListStaleOpen(ctx, now.Add(-staleShiftAge))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale shifts: %w", err)
	}

	for _, shift := range stale {
		slog.Warn("Open shift exceeds expected length",
			"attendance_id", shift.ID,
			"staff_id", shift.StaffID,
			"business_id", shift.BusinessID,
			"clock_in", shift.ClockIn.Format(time.RFC3339),
			"open_hours", int(now.Sub(shift.ClockIn).Hours()),
		)
	}
	if len(stale) > 0 {
		slog.Info("Cron: stale open shifts reported", "count", len(stale))
	}
	return len(stale), nil
}
