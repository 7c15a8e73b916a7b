package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// LogAttendance applies the attendance state machine for the employee at
// the given time. An advisory transaction lock keyed on (employee, day)
// serializes concurrent calls so two of them cannot both observe
// "no record" and create duplicate open records.
func (p *Pool) LogAttendance(ctx context.Context, employeeID string, now time.Time) (*database.Transition, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	lockKey := employeeID + ":" + now.Format("2006-01-02")
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
		return nil, fmt.Errorf("acquiring attendance lock: %w", err)
	}

	start, end := database.DayBounds(now)
	latest, err := scanLatest(tx.QueryRowContext(ctx, `
		SELECT id, employee_id, check_in, check_out
		FROM attendance
		WHERE employee_id = $1 AND check_in >= $2 AND check_in < $3
		ORDER BY check_in DESC, id DESC
		LIMIT 1
	`, employeeID, start, end))
	if err != nil {
		return nil, err
	}

	transition := &database.Transition{
		Kind: database.NextTransition(latest),
		Time: now,
	}

	switch transition.Kind {
	case database.TransitionCheckOut:
		if _, err := tx.ExecContext(ctx, "UPDATE attendance SET check_out = $1 WHERE id = $2", now, latest.ID); err != nil {
			return nil, fmt.Errorf("closing attendance record: %w", err)
		}
		out := now
		transition.Record = *latest
		transition.Record.CheckOut = &out

	case database.TransitionCheckIn:
		var id int64
		err := tx.QueryRowContext(ctx,
			"INSERT INTO attendance (employee_id, check_in) VALUES ($1, $2) RETURNING id",
			employeeID, now).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("creating attendance record: %w", err)
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
func (p *Pool) LatestForDay(ctx context.Context, employeeID string, day time.Time) (*database.AttendanceRecord, error) {
	start, end := database.DayBounds(day)
	return scanLatest(p.db.QueryRowContext(ctx, `
		SELECT id, employee_id, check_in, check_out
		FROM attendance
		WHERE employee_id = $1 AND check_in >= $2 AND check_in < $3
		ORDER BY check_in DESC, id DESC
		LIMIT 1
	`, employeeID, start, end))
}

func scanLatest(row *sql.Row) (*database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	var checkOut sql.NullTime
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.CheckIn, &checkOut)
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
func (p *Pool) ListRecords(ctx context.Context, day *time.Time) ([]database.AttendanceEntry, error) {
	query := `
		SELECT a.id, a.employee_id, e.name, a.check_in, a.check_out
		FROM attendance a
		JOIN employees e ON a.employee_id = e.employee_id
	`
	var args []any
	if day != nil {
		start, end := database.DayBounds(*day)
		query += " WHERE a.check_in >= $1 AND a.check_in < $2"
		args = append(args, start, end)
	}
	query += " ORDER BY a.check_in DESC, a.id DESC"

	rows, err := p.db.QueryContext(ctx, query, args...)
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
