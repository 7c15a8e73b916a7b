package database

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmployee is returned by Create when the employee id is
// already taken. The caller must not write an encoding after this error.
var ErrDuplicateEmployee = errors.New("employee id already exists")

// EmployeeStore provides access to employee identities.
type EmployeeStore interface {
	// Create inserts a new employee. Returns ErrDuplicateEmployee if the
	// id is already taken; existing rows are never overwritten.
	Create(ctx context.Context, emp Employee) error
	// Get retrieves an employee by id, returns nil if not found.
	Get(ctx context.Context, id string) (*Employee, error)
	// List returns all employees ordered by creation time, newest first.
	List(ctx context.Context) ([]Employee, error)
	// Delete removes an employee and cascades deletion of all their
	// attendance records. No-op if the employee does not exist.
	Delete(ctx context.Context, id string) error
}

// AttendanceLedger provides access to the check-in/check-out ledger.
type AttendanceLedger interface {
	// LogAttendance applies the attendance state machine for the employee
	// at the given time. The whole read-decide-write sequence runs inside
	// a single transaction.
	LogAttendance(ctx context.Context, employeeID string, now time.Time) (*Transition, error)
	// LatestForDay returns the most recent record whose check_in falls on
	// the same local calendar day as day, or nil if there is none.
	LatestForDay(ctx context.Context, employeeID string, day time.Time) (*AttendanceRecord, error)
	// ListRecords returns attendance entries joined with employee names,
	// optionally restricted to the calendar day of the given time.
	ListRecords(ctx context.Context, day *time.Time) ([]AttendanceEntry, error)
}
