package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreate(t *testing.T, db *DB, id, name string) {
	t.Helper()
	if err := db.Create(context.Background(), database.Employee{ID: id, Name: name}); err != nil {
		t.Fatalf("failed to create employee %s: %v", id, err)
	}
}

func TestCreateDuplicateEmployee(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "emp-1", "Alice")

	err := db.Create(ctx, database.Employee{ID: "emp-1", Name: "Impostor"})
	if !errors.Is(err, database.ErrDuplicateEmployee) {
		t.Fatalf("expected ErrDuplicateEmployee, got %v", err)
	}

	// Original row must be untouched.
	emp, err := db.Get(ctx, "emp-1")
	if err != nil {
		t.Fatalf("failed to get employee: %v", err)
	}
	if emp == nil || emp.Name != "Alice" {
		t.Errorf("expected original employee 'Alice' to survive, got %+v", emp)
	}
}

func TestGetMissingEmployee(t *testing.T) {
	db := setupTestDB(t)

	emp, err := db.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emp != nil {
		t.Errorf("expected nil for missing employee, got %+v", emp)
	}
}

func TestListOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"emp-1", "emp-2", "emp-3"} {
		err := db.Create(ctx, database.Employee{
			ID:        id,
			Name:      "Employee " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to create %s: %v", id, err)
		}
	}

	employees, err := db.List(ctx)
	if err != nil {
		t.Fatalf("failed to list employees: %v", err)
	}
	if len(employees) != 3 {
		t.Fatalf("expected 3 employees, got %d", len(employees))
	}
	if employees[0].ID != "emp-3" {
		t.Errorf("expected newest employee first, got %s", employees[0].ID)
	}
}

func TestLogAttendanceSequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "emp-1", "Alice")

	now := time.Now()

	// 1st call: check-in.
	tr, err := db.LogAttendance(ctx, "emp-1", now)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if tr.Kind != database.TransitionCheckIn {
		t.Errorf("first call: expected check_in, got %s", tr.Kind)
	}

	// 2nd call: check-out of the open record.
	tr, err = db.LogAttendance(ctx, "emp-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if tr.Kind != database.TransitionCheckOut {
		t.Errorf("second call: expected check_out, got %s", tr.Kind)
	}
	if tr.Record.CheckOut == nil {
		t.Error("second call: record should carry a check_out time")
	}

	// 3rd call: day re-opens with a new record.
	tr, err = db.LogAttendance(ctx, "emp-1", now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("third call failed: %v", err)
	}
	if tr.Kind != database.TransitionCheckIn {
		t.Errorf("third call: expected check_in, got %s", tr.Kind)
	}

	// Exactly two records: the first closed, the second open.
	entries, err := db.ListRecords(ctx, &now)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 records after three calls, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Record.CheckOut != nil {
		t.Error("second record should still be open")
	}
	if entries[1].Record.CheckOut == nil {
		t.Error("first record should be closed")
	}
}

func TestLatestForDayIgnoresOtherDays(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "emp-1", "Alice")

	yesterday := time.Now().AddDate(0, 0, -1)
	if _, err := db.LogAttendance(ctx, "emp-1", yesterday); err != nil {
		t.Fatalf("failed to log attendance: %v", err)
	}

	rec, err := db.LatestForDay(ctx, "emp-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("yesterday's record should not count for today, got %+v", rec)
	}

	rec, err = db.LatestForDay(ctx, "emp-1", yesterday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Error("expected yesterday's record to be found for yesterday")
	}
}

func TestDeleteCascadesAttendance(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "emp-1", "Alice")
	now := time.Now()
	if _, err := db.LogAttendance(ctx, "emp-1", now); err != nil {
		t.Fatalf("failed to log attendance: %v", err)
	}

	if err := db.Delete(ctx, "emp-1"); err != nil {
		t.Fatalf("failed to delete employee: %v", err)
	}

	entries, err := db.ListRecords(ctx, nil)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected cascade delete of attendance records, got %d", len(entries))
	}

	// Idempotent.
	if err := db.Delete(ctx, "emp-1"); err != nil {
		t.Errorf("deleting a missing employee should be a no-op, got %v", err)
	}
}

func TestLogAttendanceConcurrentEmployees(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "emp-1", "Alice")
	mustCreate(t, db, "emp-2", "Bob")

	now := time.Now()
	done := make(chan error, 2)
	for _, id := range []string{"emp-1", "emp-2"} {
		go func(id string) {
			_, err := db.LogAttendance(ctx, id, now)
			done <- err
		}(id)
	}
	for range 2 {
		if err := <-done; err != nil {
			t.Fatalf("concurrent log failed: %v", err)
		}
	}

	// Each employee ends up with exactly one open record.
	for _, id := range []string{"emp-1", "emp-2"} {
		rec, err := db.LatestForDay(ctx, id, now)
		if err != nil {
			t.Fatalf("failed to fetch record for %s: %v", id, err)
		}
		if rec == nil || !rec.Open() {
			t.Errorf("expected one open record for %s, got %+v", id, rec)
		}
	}
}
