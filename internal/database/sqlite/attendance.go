package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// LogAttendance applies the attendance state machine for the employee at
// the given time. The lookup and the write run in one transaction; the
// connection opens transactions with an immediate write lock, so two
// concurrent calls for the same employee and day cannot both observe
// "no record" and create duplicate open records.
func (d *DB) LogAttendance(ctx context.Context, employeeID string, now time.Time) (*database.Transition, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	latest, err := latestForDay(ctx, tx, employeeID, now)
	if err != nil {
		return nil, err
	}

	transition := &database.Transition{
		Kind: database.NextTransition(latest),
		Time: now,
	}

	switch transition.Kind {
	case database.TransitionCheckOut:
		if _, err := tx.ExecContext(ctx, "UPDATE attendance SET check_out = ? WHERE id = ?", now, latest.ID); err != nil {
			return nil, fmt.Errorf("closing attendance record: %w", err)
		}
		out := now
		transition.Record = *latest
		transition.Record.CheckOut = &out

	case database.TransitionCheckIn:
		res, err := tx.ExecContext(ctx, "INSERT INTO attendance (employee_id, check_in) VALUES (?, ?)", employeeID, now)
		if err != nil {
			return nil, fmt.Errorf("creating attendance record: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading new record id: %w", err)
		}
		transition.Record = database.AttendanceRecord{
			ID:         id,
			EmployeeID: employeeID,
			CheckIn:    now,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing attendance transaction: %w", err)
	}
	return transition, nil
}

// LatestForDay returns the most recent record whose check_in falls on the
// same local calendar day as day, or nil if there is none.
func (d *DB) LatestForDay(ctx context.Context, employeeID string, day time.Time) (*database.AttendanceRecord, error) {
	return latestForDay(ctx, d.db, employeeID, day)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latestForDay(ctx context.Context, q querier, employeeID string, day time.Time) (*database.AttendanceRecord, error) {
	start, end := database.DayBounds(day)

	var rec database.AttendanceRecord
	var checkOut sql.NullTime
	err := q.QueryRowContext(ctx, `
		SELECT id, employee_id, check_in, check_out
		FROM attendance
		WHERE employee_id = ? AND check_in >= ? AND check_in < ?
		ORDER BY check_in DESC, id DESC
		LIMIT 1
	`, employeeID, start, end).Scan(&rec.ID, &rec.EmployeeID, &rec.CheckIn, &checkOut)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying attendance record: %w", err)
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOut = &t
	}
	return &rec, nil
}

// ListRecords returns attendance entries joined with employee names,
// newest first, optionally restricted to the calendar day of the given time.
func (d *DB) ListRecords(ctx context.Context, day *time.Time) ([]database.AttendanceEntry, error) {
	query := `
		SELECT a.id, a.employee_id, e.name, a.check_in, a.check_out
		FROM attendance a
		JOIN employees e ON a.employee_id = e.employee_id
	`
	var args []any
	if day != nil {
		start, end := database.DayBounds(*day)
		query += " WHERE a.check_in >= ? AND a.check_in < ?"
		args = append(args, start, end)
	}
	query += " ORDER BY a.check_in DESC, a.id DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attendance records: %w", err)
	}
	defer rows.Close()

	var entries []database.AttendanceEntry
	for rows.Next() {
		var e database.AttendanceEntry
		var checkOut sql.NullTime
		if err := rows.Scan(&e.Record.ID, &e.Record.EmployeeID, &e.Name, &e.Record.CheckIn, &checkOut); err != nil {
			return nil, fmt.Errorf("scanning attendance record: %w", err)
		}
		if checkOut.Valid {
			t := checkOut.Time
			e.Record.CheckOut = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
