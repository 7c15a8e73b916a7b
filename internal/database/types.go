package database

import (
	"time"
)

// Employee represents an enrolled employee identity.
type Employee struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// AttendanceRecord represents one check-in/check-out pair for an employee.
// CheckOut is nil while the record is still open.
type AttendanceRecord struct {
	ID         int64
	EmployeeID string
	CheckIn    time.Time
	CheckOut   *time.Time
}

// Open reports whether the record has no check-out yet.
func (r *AttendanceRecord) Open() bool {
	return r.CheckOut == nil
}

// AttendanceEntry is an attendance record joined with the employee name,
// used for listing surfaces.
type AttendanceEntry struct {
	Record AttendanceRecord
	Name   string
}

// DayBounds returns the local-time day boundaries [start, end) containing t.
// Calendar-day comparison uses whatever local date the host clock reports.
func DayBounds(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
