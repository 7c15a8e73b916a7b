package database

import "time"

// TransitionKind describes what a call to LogAttendance did.
type TransitionKind int

const (
	// TransitionCheckIn means a new record with check_in was created.
	TransitionCheckIn TransitionKind = iota
	// TransitionCheckOut means the open record was closed with check_out.
	TransitionCheckOut
)

func (k TransitionKind) String() string {
	if k == TransitionCheckOut {
		return "check_out"
	}
	return "check_in"
}

// Transition is the result of applying the attendance state machine.
type Transition struct {
	Kind   TransitionKind
	Record AttendanceRecord
	Time   time.Time
}

// NextTransition decides the attendance transition given the most recent
// record for the employee on the current day. Both ledger backends apply
// this inside their transaction so the read-decide-write sequence is
// serialized per employee per day.
//
//   - no record today: create a new record (check-in)
//   - open record: close it (check-out)
//   - completed record: create a new record, re-opening the day (check-in)
func NextTransition(latest *AttendanceRecord) TransitionKind {
	if latest != nil && latest.Open() {
		return TransitionCheckOut
	}
	return TransitionCheckIn
}
